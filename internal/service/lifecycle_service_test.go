package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law4percent/checkme-api/internal/models"
	"github.com/law4percent/checkme-api/internal/repository"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/store"
)

type lifecycleFixture struct {
	lifecycle   *LifecycleService
	assessments *repository.AssessmentRepository
	keys        *repository.AnswerKeyRepository
	sheets      *repository.AnswerSheetRepository
	subjects    *repository.SubjectRepository
	sections    *repository.SectionRepository
	enrollments *repository.EnrollmentRepository
	invites     *repository.InviteCodeRepository
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	kv := store.NewMemoryStore()
	f := &lifecycleFixture{
		assessments: repository.NewAssessmentRepository(kv),
		keys:        repository.NewAnswerKeyRepository(kv),
		sheets:      repository.NewAnswerSheetRepository(kv),
		subjects:    repository.NewSubjectRepository(kv),
		sections:    repository.NewSectionRepository(kv),
		enrollments: repository.NewEnrollmentRepository(kv),
		invites:     repository.NewInviteCodeRepository(kv),
	}
	f.lifecycle = NewLifecycleService(f.assessments, f.keys, f.sheets, f.subjects, f.sections, f.enrollments, f.invites, nil, nil)
	return f
}

func (f *lifecycleFixture) seedSectionAndSubject(t *testing.T, ctx context.Context) (string, string) {
	t.Helper()
	require.NoError(t, f.sections.Save(ctx, testOwner, &models.Section{ID: "sec-1", Name: "Grade 10 A"}))
	require.NoError(t, f.subjects.Save(ctx, testOwner, &models.Subject{ID: "sub-1", Name: "Biology", SectionID: "sec-1"}))
	return "sec-1", "sub-1"
}

func TestCreateAssessmentMintsCode(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	_, subjectID := f.seedSectionAndSubject(t, ctx)

	assessment, err := f.lifecycle.CreateAssessment(ctx, testOwner, CreateAssessmentRequest{
		Name:      "Chapter 3 Quiz",
		Kind:      "quiz",
		SubjectID: subjectID,
		SectionID: "sec-1",
	})
	require.NoError(t, err)
	require.Len(t, assessment.Code, codeLength)
	for _, r := range assessment.Code {
		assert.Contains(t, codeAlphabet, string(r))
	}

	stored, found, err := f.assessments.FindByCode(ctx, testOwner, assessment.Code)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Chapter 3 Quiz", stored.Name)
}

func TestListSubjects(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	f.seedSectionAndSubject(t, ctx)
	require.NoError(t, f.subjects.Save(ctx, testOwner, &models.Subject{ID: "sub-2", Name: "Physics", SectionID: "sec-1"}))
	require.NoError(t, f.subjects.Save(ctx, "other-teacher", &models.Subject{ID: "sub-9", Name: "History", SectionID: "sec-9"}))

	subjects, err := f.lifecycle.ListSubjects(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	names := []string{subjects[0].Name, subjects[1].Name}
	assert.ElementsMatch(t, []string{"Biology", "Physics"}, names)
}

func TestCreateAssessmentUnknownSubject(t *testing.T) {
	f := newLifecycleFixture(t)
	_, err := f.lifecycle.CreateAssessment(context.Background(), testOwner, CreateAssessmentRequest{
		Name:      "Quiz",
		Kind:      "quiz",
		SubjectID: "ghost",
		SectionID: "sec-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCreateAssessmentRejectsBadKind(t *testing.T) {
	f := newLifecycleFixture(t)
	_, err := f.lifecycle.CreateAssessment(context.Background(), testOwner, CreateAssessmentRequest{
		Name:      "Quiz",
		Kind:      "pop-quiz",
		SubjectID: "sub-1",
		SectionID: "sec-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

type exhaustedAssessments struct {
	*repository.AssessmentRepository
}

func (e *exhaustedAssessments) Exists(ctx context.Context, ownerID, code string) (bool, error) {
	return true, nil
}

func TestCreateAssessmentCodeExhaustion(t *testing.T) {
	kv := store.NewMemoryStore()
	subjects := repository.NewSubjectRepository(kv)
	sections := repository.NewSectionRepository(kv)
	ctx := context.Background()
	require.NoError(t, subjects.Save(ctx, testOwner, &models.Subject{ID: "sub-1", Name: "Biology", SectionID: "sec-1"}))

	assessments := &exhaustedAssessments{AssessmentRepository: repository.NewAssessmentRepository(kv)}
	lifecycle := NewLifecycleService(assessments, repository.NewAnswerKeyRepository(kv), repository.NewAnswerSheetRepository(kv), subjects, sections, repository.NewEnrollmentRepository(kv), repository.NewInviteCodeRepository(kv), nil, nil)

	_, err := lifecycle.CreateAssessment(ctx, testOwner, CreateAssessmentRequest{
		Name:      "Quiz",
		Kind:      "quiz",
		SubjectID: "sub-1",
		SectionID: "sec-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrGenerationExhausted)
}

func TestDeleteAssessmentCascades(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	_, subjectID := f.seedSectionAndSubject(t, ctx)

	require.NoError(t, f.assessments.Create(ctx, testOwner, &models.Assessment{Code: testCode, Name: "Quiz", SubjectID: subjectID}))
	require.NoError(t, f.keys.Save(ctx, testOwner, testCode, &models.AnswerKey{QuestionCount: 1, Answers: map[string]string{"Q1": "A"}}))
	require.NoError(t, f.sheets.Save(ctx, testOwner, testCode, &models.AnswerSheet{SchoolID: "100001"}))
	require.NoError(t, f.sheets.Save(ctx, testOwner, testCode, &models.AnswerSheet{SchoolID: "100002"}))

	require.NoError(t, f.lifecycle.DeleteAssessment(ctx, testOwner, testCode))

	_, found, err := f.assessments.FindByCode(ctx, testOwner, testCode)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = f.keys.Find(ctx, testOwner, testCode)
	require.NoError(t, err)
	assert.False(t, found)
	sheets, err := f.sheets.List(ctx, testOwner, testCode)
	require.NoError(t, err)
	assert.Empty(t, sheets)
}

func TestDeleteAssessmentNotFound(t *testing.T) {
	f := newLifecycleFixture(t)
	err := f.lifecycle.DeleteAssessment(context.Background(), testOwner, "MISSING2")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDeleteSubjectCascades(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	_, subjectID := f.seedSectionAndSubject(t, ctx)

	require.NoError(t, f.assessments.Create(ctx, testOwner, &models.Assessment{Code: testCode, Name: "Quiz", SubjectID: subjectID}))
	require.NoError(t, f.sheets.Save(ctx, testOwner, testCode, &models.AnswerSheet{SchoolID: "100001"}))
	require.NoError(t, f.enrollments.Save(ctx, &models.Enrollment{AccountID: "acc-1", SubjectID: subjectID, Status: models.EnrollmentStatusApproved}))
	require.NoError(t, f.invites.Save(ctx, &models.InviteCode{Code: "inv-1", SubjectID: subjectID}))

	require.NoError(t, f.lifecycle.DeleteSubject(ctx, testOwner, subjectID))

	_, found, err := f.subjects.Find(ctx, testOwner, subjectID)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = f.assessments.FindByCode(ctx, testOwner, testCode)
	require.NoError(t, err)
	assert.False(t, found)
	enrollments, err := f.enrollments.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	assert.Empty(t, enrollments)
	_, found, err = f.invites.Find(ctx, subjectID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteSectionCascades(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	sectionID, subjectID := f.seedSectionAndSubject(t, ctx)

	require.NoError(t, f.assessments.Create(ctx, testOwner, &models.Assessment{Code: testCode, Name: "Quiz", SubjectID: subjectID}))

	require.NoError(t, f.lifecycle.DeleteSection(ctx, testOwner, sectionID))

	_, found, err := f.sections.Find(ctx, testOwner, sectionID)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = f.subjects.Find(ctx, testOwner, subjectID)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = f.assessments.FindByCode(ctx, testOwner, testCode)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateSubjectMintsInvite(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sections.Save(ctx, testOwner, &models.Section{ID: "sec-1", Name: "Grade 10 A", CreatedAt: time.Now().UTC()}))

	subject, err := f.lifecycle.CreateSubject(ctx, testOwner, CreateSubjectRequest{Name: "Biology", SectionID: "sec-1"})
	require.NoError(t, err)
	require.NotEmpty(t, subject.ID)

	invite, found, err := f.invites.Find(ctx, subject.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEmpty(t, invite.Code)
}

func TestRegenerateInviteReplacesCode(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	_, subjectID := f.seedSectionAndSubject(t, ctx)
	require.NoError(t, f.invites.Save(ctx, &models.InviteCode{Code: "old", SubjectID: subjectID}))

	invite, err := f.lifecycle.RegenerateInvite(ctx, testOwner, subjectID)
	require.NoError(t, err)
	assert.NotEqual(t, "old", invite.Code)

	stored, found, err := f.invites.Find(ctx, subjectID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, invite.Code, stored.Code)
}
