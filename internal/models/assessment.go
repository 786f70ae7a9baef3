package models

import "time"

// AssessmentKind distinguishes the two gradeable formats.
type AssessmentKind string

const (
	AssessmentKindQuiz AssessmentKind = "quiz"
	AssessmentKindExam AssessmentKind = "exam"
)

// Assessment is one gradeable test instance, identified within its owner's
// scope by an 8-character code that also keys the answer key and sheet
// collections.
type Assessment struct {
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Kind      AssessmentKind `json:"kind"`
	SubjectID string         `json:"subject_id"`
	SectionID string         `json:"section_id"`
	CreatedAt time.Time      `json:"created_at"`
}
