package repository

import "github.com/law4percent/checkme-api/pkg/store"

// Store path roots. The scanning device writes answerKeys and answerSheets
// under these same roots, so the layout is shared contract, not private
// detail.
const (
	assessmentsRoot  = "assessments"
	answerKeysRoot   = "answerKeys"
	answerSheetsRoot = "answerSheets"
	enrollmentsRoot  = "enrollments"
	inviteCodesRoot  = "inviteCodes"
	subjectsRoot     = "subjects"
	sectionsRoot     = "sections"
)

// AssessmentPath addresses one assessment record.
func AssessmentPath(ownerID, code string) string {
	return store.Join(assessmentsRoot, ownerID, code)
}

// AnswerKeyPath addresses the answer key of an assessment.
func AnswerKeyPath(ownerID, code string) string {
	return store.Join(answerKeysRoot, ownerID, code)
}

// AnswerSheetsPrefix addresses the sheet collection of an assessment.
func AnswerSheetsPrefix(ownerID, code string) string {
	return store.Join(answerSheetsRoot, ownerID, code)
}

// AnswerSheetPath addresses one scanned sheet.
func AnswerSheetPath(ownerID, code, schoolID string) string {
	return store.Join(answerSheetsRoot, ownerID, code, schoolID)
}

// EnrollmentsPrefix addresses the enrollment collection of a subject.
func EnrollmentsPrefix(subjectID string) string {
	return store.Join(enrollmentsRoot, subjectID)
}

// EnrollmentPath addresses one enrollment record.
func EnrollmentPath(subjectID, accountID string) string {
	return store.Join(enrollmentsRoot, subjectID, accountID)
}

// InviteCodePath addresses the invite code of a subject.
func InviteCodePath(subjectID string) string {
	return store.Join(inviteCodesRoot, subjectID)
}

// SubjectPath addresses one subject record.
func SubjectPath(ownerID, subjectID string) string {
	return store.Join(subjectsRoot, ownerID, subjectID)
}

// SectionPath addresses one section record.
func SectionPath(ownerID, sectionID string) string {
	return store.Join(sectionsRoot, ownerID, sectionID)
}
