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

const (
	testOwner   = "teacher-1"
	testCode    = "AB23CD45"
	testSubject = "subject-1"
)

type stubRoster struct {
	roster Roster
}

func (s *stubRoster) RosterMap(ctx context.Context, subjectID string) (Roster, error) {
	return s.roster, nil
}

type recordingDispatcher struct {
	calls int
	code  string
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, ownerID, code string) error {
	d.calls++
	d.code = code
	return nil
}

type scoringFixture struct {
	scoring     *ScoringService
	keys        *repository.AnswerKeyRepository
	sheets      *repository.AnswerSheetRepository
	assessments *repository.AssessmentRepository
	roster      *stubRoster
}

func newScoringFixture(t *testing.T, dispatcher RescoreDispatcher) *scoringFixture {
	t.Helper()
	kv := store.NewMemoryStore()
	keys := repository.NewAnswerKeyRepository(kv)
	sheets := repository.NewAnswerSheetRepository(kv)
	assessments := repository.NewAssessmentRepository(kv)
	roster := &stubRoster{roster: Roster{}}

	ctx := context.Background()
	require.NoError(t, assessments.Create(ctx, testOwner, &models.Assessment{
		Code:      testCode,
		Name:      "Unit Quiz",
		Kind:      models.AssessmentKindQuiz,
		SubjectID: testSubject,
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, keys.Save(ctx, testOwner, testCode, &models.AnswerKey{
		QuestionCount: 2,
		Answers:       map[string]string{"Q1": "A", "Q2": models.AnswerEssay},
	}))

	return &scoringFixture{
		scoring:     NewScoringService(keys, sheets, assessments, roster, dispatcher, nil, nil, nil),
		keys:        keys,
		sheets:      sheets,
		assessments: assessments,
		roster:      roster,
	}
}

func TestComputeResult(t *testing.T) {
	assert.Equal(t, models.ResultCorrect, ComputeResult("A", "A"))
	assert.Equal(t, models.ResultIncorrect, ComputeResult("A", "a"))
	assert.Equal(t, models.ResultIncorrect, ComputeResult("A", ""))
	// essay is never auto-graded, even on an exact match
	assert.Equal(t, models.ResultPending, ComputeResult(models.AnswerEssay, models.AnswerEssay))
}

func TestGradeSubmissionWithEssay(t *testing.T) {
	key := &models.AnswerKey{
		QuestionCount: 2,
		Answers:       map[string]string{"Q1": "A", "Q2": models.AnswerEssay},
	}
	breakdown, score, final := GradeSubmission(key, map[string]string{"Q1": "A", "Q2": "some essay text"})

	assert.Equal(t, 1, score)
	assert.False(t, final)
	assert.Equal(t, models.ResultCorrect, breakdown["Q1"].Result)
	assert.Equal(t, models.ResultPending, breakdown["Q2"].Result)
	assert.Equal(t, "some essay text", breakdown["Q2"].StudentAnswer)
}

func TestGradeSubmissionAllObjectiveStartsFinal(t *testing.T) {
	key := &models.AnswerKey{
		QuestionCount: 2,
		Answers:       map[string]string{"Q1": "A", "Q2": "B"},
	}
	_, score, final := GradeSubmission(key, map[string]string{"Q1": "A", "Q2": "C"})

	assert.Equal(t, 1, score)
	assert.True(t, final)
}

func TestIngestSheet(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	sheet, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
		SchoolID: "100001",
		Answers:  map[string]string{"Q1": "A", "Q2": "my essay"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.TotalScore)
	assert.Equal(t, 2, sheet.TotalQuestions)
	assert.False(t, sheet.IsFinal)
	assert.Equal(t, sheet.TotalScore, sheet.CorrectCount())
}

func TestIngestSheetRejectsDuplicateSchoolID(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	req := IngestSheetRequest{SchoolID: "100001", Answers: map[string]string{"Q1": "A"}}
	_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, req)
	require.NoError(t, err)

	_, err = f.scoring.IngestSheet(ctx, testOwner, testCode, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestGradeEssayUpdatesScoreNotFinality(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
		SchoolID: "100001",
		Answers:  map[string]string{"Q1": "A", "Q2": "my essay"},
	})
	require.NoError(t, err)

	sheet, err := f.scoring.GradeEssay(ctx, testOwner, testCode, "100001", EssayVerdictRequest{
		QuestionID: "Q2",
		Verdict:    "correct",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sheet.TotalScore)
	assert.False(t, sheet.HasPending())
	// finality stays with the teacher's explicit confirmation
	assert.False(t, sheet.IsFinal)

	sheet, err = f.scoring.SetFinality(ctx, testOwner, testCode, "100001", FinalityRequest{Final: true})
	require.NoError(t, err)
	assert.True(t, sheet.IsFinal)
}

func TestGradeEssayRejectsObjectiveQuestion(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
		SchoolID: "100001",
		Answers:  map[string]string{"Q1": "A"},
	})
	require.NoError(t, err)

	_, err = f.scoring.GradeEssay(ctx, testOwner, testCode, "100001", EssayVerdictRequest{
		QuestionID: "Q1",
		Verdict:    "correct",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEditStudentAnswerRegrades(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
		SchoolID: "100001",
		Answers:  map[string]string{"Q1": "B", "Q2": "essay"},
	})
	require.NoError(t, err)

	sheet, err := f.scoring.EditStudentAnswer(ctx, testOwner, testCode, "100001", EditAnswerRequest{
		QuestionID:    "Q1",
		StudentAnswer: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.TotalScore)
	assert.Equal(t, models.ResultCorrect, sheet.Breakdown["Q1"].Result)
}

func TestEditStudentAnswerRejectsEssay(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
		SchoolID: "100001",
		Answers:  map[string]string{"Q2": "essay"},
	})
	require.NoError(t, err)

	_, err = f.scoring.EditStudentAnswer(ctx, testOwner, testCode, "100001", EditAnswerRequest{
		QuestionID:    "Q2",
		StudentAnswer: "better essay",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSetFinalityRefusesPendingSheet(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
		SchoolID: "100001",
		Answers:  map[string]string{"Q1": "A", "Q2": "essay"},
	})
	require.NoError(t, err)

	_, err = f.scoring.SetFinality(ctx, testOwner, testCode, "100001", FinalityRequest{Final: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEditAnswerKeyRescoresInline(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	for _, id := range []string{"100001", "100002"} {
		_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
			SchoolID: id,
			Answers:  map[string]string{"Q1": "A", "Q2": "essay"},
		})
		require.NoError(t, err)
	}
	_, err := f.scoring.GradeEssay(ctx, testOwner, testCode, "100001", EssayVerdictRequest{QuestionID: "Q2", Verdict: "correct"})
	require.NoError(t, err)
	_, err = f.scoring.SetFinality(ctx, testOwner, testCode, "100001", FinalityRequest{Final: true})
	require.NoError(t, err)

	result, err := f.scoring.EditAnswerKey(ctx, testOwner, testCode, KeyEditRequest{
		QuestionID:    "Q1",
		CorrectAnswer: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SheetsAffected)
	assert.NotEmpty(t, result.Warning)
	assert.Equal(t, "B", result.Key.Answers["Q1"])

	// the confirmed sheet drops back to pending
	sheet, found, err := f.sheets.Find(ctx, testOwner, testCode, "100001")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, sheet.IsFinal)
}

func TestEditAnswerKeyGrowsQuestionCount(t *testing.T) {
	f := newScoringFixture(t, nil)
	ctx := context.Background()

	result, err := f.scoring.EditAnswerKey(ctx, testOwner, testCode, KeyEditRequest{
		QuestionID:    "Q3",
		CorrectAnswer: "D",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Key.QuestionCount)
}

func TestEditAnswerKeyUsesDispatcher(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	f := newScoringFixture(t, dispatcher)
	ctx := context.Background()

	_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
		SchoolID: "100001",
		Answers:  map[string]string{"Q1": "A"},
	})
	require.NoError(t, err)

	result, err := f.scoring.EditAnswerKey(ctx, testOwner, testCode, KeyEditRequest{
		QuestionID:    "Q1",
		CorrectAnswer: "C",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, testCode, dispatcher.code)
	assert.Equal(t, 1, result.SheetsAffected)
}

func TestListSheetsResolvesRoster(t *testing.T) {
	f := newScoringFixture(t, nil)
	f.roster.roster = Roster{"100001": "Ana Cruz"}
	ctx := context.Background()

	for _, id := range []string{"100001", "999999"} {
		_, err := f.scoring.IngestSheet(ctx, testOwner, testCode, IngestSheetRequest{
			SchoolID: id,
			Answers:  map[string]string{"Q1": "A", "Q2": "essay"},
		})
		require.NoError(t, err)
	}

	views, err := f.scoring.ListSheets(ctx, testOwner, testCode)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := make(map[string]models.SheetView, len(views))
	for _, v := range views {
		byID[v.SchoolID] = v
	}
	assert.Equal(t, "Ana Cruz", byID["100001"].DisplayName)
	assert.True(t, byID["100001"].Resolved)
	assert.Equal(t, UnknownStudent, byID["999999"].DisplayName)
	assert.False(t, byID["999999"].Resolved)
}

func TestSheetDetailUnknownAssessment(t *testing.T) {
	f := newScoringFixture(t, nil)
	_, err := f.scoring.SheetDetail(context.Background(), testOwner, "NOPE2345", "100001")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
