package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/store"
)

type answerKeyStore interface {
	Find(ctx context.Context, ownerID, code string) (*models.AnswerKey, bool, error)
	Save(ctx context.Context, ownerID, code string, key *models.AnswerKey) error
}

type answerSheetStore interface {
	Find(ctx context.Context, ownerID, code, schoolID string) (*models.AnswerSheet, bool, error)
	Save(ctx context.Context, ownerID, code string, sheet *models.AnswerSheet) error
	SetFinal(ctx context.Context, ownerID, code, schoolID string, final bool, updatedAt time.Time) error
	List(ctx context.Context, ownerID, code string) ([]models.AnswerSheet, error)
}

type assessmentReader interface {
	FindByCode(ctx context.Context, ownerID, code string) (*models.Assessment, bool, error)
}

type rosterResolver interface {
	RosterMap(ctx context.Context, subjectID string) (Roster, error)
}

// RescoreDispatcher hands assessment-wide rescore work to a worker pool; a
// nil dispatcher runs the rescore inline.
type RescoreDispatcher interface {
	Dispatch(ctx context.Context, ownerID, code string) error
}

// EssayVerdictRequest records a teacher's verdict on one essay question.
type EssayVerdictRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Verdict    string `json:"verdict" validate:"required,oneof=correct incorrect"`
}

// EditAnswerRequest corrects the scanned student answer of an objective
// question.
type EditAnswerRequest struct {
	QuestionID    string `json:"question_id" validate:"required"`
	StudentAnswer string `json:"student_answer" validate:"required"`
}

// FinalityRequest toggles score confirmation.
type FinalityRequest struct {
	Final bool `json:"final"`
}

// KeyEditRequest changes the correct answer of one question in the key.
type KeyEditRequest struct {
	QuestionID    string `json:"question_id" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required"`
}

// KeyEditResult reports the fan-out triggered by a key change.
type KeyEditResult struct {
	Key            *models.AnswerKey `json:"key"`
	SheetsAffected int               `json:"sheets_affected"`
	Warning        string            `json:"warning,omitempty"`
}

// RescanWarning is surfaced after every answer key change: stored breakdowns
// keep the student answers the scanner produced, so only a re-scan can
// refresh the comparison against the new key.
const RescanWarning = "answer key changed; scores were invalidated. Re-scan sheets to refresh stored answers"

// ScoringService computes per-question outcomes and total scores, and owns
// the pending/final state machine of answer sheets.
type ScoringService struct {
	keys        answerKeyStore
	sheets      answerSheetStore
	assessments assessmentReader
	roster      rosterResolver
	rescore     RescoreDispatcher
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewScoringService constructs ScoringService.
func NewScoringService(keys answerKeyStore, sheets answerSheetStore, assessments assessmentReader, roster rosterResolver, rescore RescoreDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScoringService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{
		keys:        keys,
		sheets:      sheets,
		assessments: assessments,
		roster:      roster,
		rescore:     rescore,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ComputeResult grades one answer against the key. Essay questions are never
// auto-graded; everything else is an exact, case-preserving token
// comparison, matching how the scanner emits OCR tokens.
func ComputeResult(correctAnswer, studentAnswer string) models.QuestionResult {
	if correctAnswer == models.AnswerEssay {
		return models.ResultPending
	}
	if studentAnswer == correctAnswer {
		return models.ResultCorrect
	}
	return models.ResultIncorrect
}

// GradeSubmission builds a breakdown for a raw answer set against a key and
// returns the derived score. isFinal starts true only when nothing is
// pending.
func GradeSubmission(key *models.AnswerKey, answers map[string]string) (map[string]models.BreakdownEntry, int, bool) {
	breakdown := make(map[string]models.BreakdownEntry, len(key.Answers))
	score := 0
	pending := false
	for _, questionID := range models.QuestionIDs(key.Answers) {
		correct := key.Answers[questionID]
		result := ComputeResult(correct, answers[questionID])
		if result == models.ResultCorrect {
			score++
		}
		if result == models.ResultPending {
			pending = true
		}
		breakdown[questionID] = models.BreakdownEntry{
			StudentAnswer: answers[questionID],
			CorrectAnswer: correct,
			Result:        result,
		}
	}
	return breakdown, score, !pending
}

// recompute re-derives the total score and auto-invalidates finality when a
// pending entry exists. It never promotes a sheet to final: that requires an
// explicit confirmation.
func recompute(sheet *models.AnswerSheet) {
	sheet.TotalScore = sheet.CorrectCount()
	if sheet.HasPending() {
		sheet.IsFinal = false
	}
}

// IngestSheetRequest carries a raw scanned submission for grading.
type IngestSheetRequest struct {
	SchoolID  string            `json:"school_id" validate:"required"`
	Answers   map[string]string `json:"answers" validate:"required"`
	ImageRefs []string          `json:"image_refs"`
}

// IngestSheet grades a raw submission against the assessment's key and
// stores the resulting sheet. A sheet already present under the school ID is
// never overwritten.
func (s *ScoringService) IngestSheet(ctx context.Context, ownerID, code string, req IngestSheetRequest) (*models.AnswerSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sheet payload")
	}
	key, found, err := s.keys.Find(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "answer key not found")
	}
	if _, found, err := s.sheets.Find(ctx, ownerID, code, req.SchoolID); err != nil {
		return nil, err
	} else if found {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a sheet already exists for school id %s", req.SchoolID))
	}

	breakdown, score, final := GradeSubmission(key, req.Answers)
	now := s.now()
	sheet := &models.AnswerSheet{
		SchoolID:       req.SchoolID,
		TotalScore:     score,
		TotalQuestions: key.QuestionCount,
		IsFinal:        final,
		CheckedAt:      now,
		UpdatedAt:      now,
		Breakdown:      breakdown,
		ImageRefs:      store.FlexStrings(req.ImageRefs),
	}
	if err := s.sheets.Save(ctx, ownerID, code, sheet); err != nil {
		return nil, err
	}
	return sheet, nil
}

// GradeEssay records a verdict on an essay entry and recomputes the score.
// Finality is left for the teacher to confirm separately.
func (s *ScoringService) GradeEssay(ctx context.Context, ownerID, code, schoolID string, req EssayVerdictRequest) (*models.AnswerSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verdict payload")
	}
	sheet, err := s.loadSheet(ctx, ownerID, code, schoolID)
	if err != nil {
		return nil, err
	}
	entry, ok := sheet.Breakdown[req.QuestionID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("question %s not on sheet", req.QuestionID))
	}
	if entry.CorrectAnswer != models.AnswerEssay {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s is not an essay", req.QuestionID))
	}
	entry.Result = models.QuestionResult(req.Verdict)
	sheet.Breakdown[req.QuestionID] = entry

	recompute(sheet)
	return s.saveSheet(ctx, ownerID, code, sheet)
}

// EditStudentAnswer corrects the scanned answer of an objective question and
// regrades that entry. Finality is left untouched; the teacher re-confirms.
func (s *ScoringService) EditStudentAnswer(ctx context.Context, ownerID, code, schoolID string, req EditAnswerRequest) (*models.AnswerSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}
	sheet, err := s.loadSheet(ctx, ownerID, code, schoolID)
	if err != nil {
		return nil, err
	}
	entry, ok := sheet.Breakdown[req.QuestionID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("question %s not on sheet", req.QuestionID))
	}
	if entry.CorrectAnswer == models.AnswerEssay {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s is an essay; record a verdict instead", req.QuestionID))
	}
	entry.StudentAnswer = req.StudentAnswer
	entry.Result = ComputeResult(entry.CorrectAnswer, entry.StudentAnswer)
	sheet.Breakdown[req.QuestionID] = entry

	recompute(sheet)
	return s.saveSheet(ctx, ownerID, code, sheet)
}

// SetFinality applies the explicit teacher toggle. Confirming a sheet that
// still has pending entries would break the score invariant and is refused.
func (s *ScoringService) SetFinality(ctx context.Context, ownerID, code, schoolID string, req FinalityRequest) (*models.AnswerSheet, error) {
	sheet, err := s.loadSheet(ctx, ownerID, code, schoolID)
	if err != nil {
		return nil, err
	}
	if req.Final && sheet.HasPending() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sheet has pending questions; grade them before confirming")
	}
	sheet.IsFinal = req.Final
	sheet.UpdatedAt = s.now()
	if err := s.sheets.SetFinal(ctx, ownerID, code, schoolID, sheet.IsFinal, sheet.UpdatedAt); err != nil {
		return nil, err
	}
	return sheet, nil
}

// EditAnswerKey changes one question of the key and invalidates every sheet
// of the assessment: their stored comparisons reference the old key, so all
// of them drop to pending until re-scored.
func (s *ScoringService) EditAnswerKey(ctx context.Context, ownerID, code string, req KeyEditRequest) (*KeyEditResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid key payload")
	}
	key, found, err := s.keys.Find(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "answer key not found")
	}
	if key.Answers == nil {
		key.Answers = make(map[string]string)
	}
	key.Answers[req.QuestionID] = req.CorrectAnswer
	if len(key.Answers) > key.QuestionCount {
		key.QuestionCount = len(key.Answers)
	}
	if err := s.keys.Save(ctx, ownerID, code, key); err != nil {
		return nil, err
	}

	affected, err := s.dispatchRescore(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}

	result := &KeyEditResult{Key: key, SheetsAffected: affected}
	if affected > 0 {
		result.Warning = RescanWarning
	}
	return result, nil
}

// RescoreAssessment re-runs recompute over every sheet of the assessment and
// forces them back to pending. Sheets keep their scanned answers; only a
// re-scan refreshes the stored comparisons.
func (s *ScoringService) RescoreAssessment(ctx context.Context, ownerID, code string) (int, error) {
	sheets, err := s.sheets.List(ctx, ownerID, code)
	if err != nil {
		s.metrics.RecordRescore(false)
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range sheets {
		sheet := sheets[i]
		g.Go(func() error {
			sheet.IsFinal = false
			recompute(&sheet)
			sheet.UpdatedAt = s.now()
			return s.sheets.Save(gctx, ownerID, code, &sheet)
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.RecordRescore(false)
		return 0, err
	}
	s.metrics.RecordRescore(true)
	return len(sheets), nil
}

func (s *ScoringService) dispatchRescore(ctx context.Context, ownerID, code string) (int, error) {
	if s.rescore == nil {
		return s.RescoreAssessment(ctx, ownerID, code)
	}
	sheets, err := s.sheets.List(ctx, ownerID, code)
	if err != nil {
		return 0, err
	}
	if err := s.rescore.Dispatch(ctx, ownerID, code); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dispatch rescore")
	}
	return len(sheets), nil
}

// ListSheets returns every sheet of an assessment decorated with resolved
// student identities. Sheet and roster reads run concurrently; the first
// failure surfaces.
func (s *ScoringService) ListSheets(ctx context.Context, ownerID, code string) ([]models.SheetView, error) {
	assessment, found, err := s.assessments.FindByCode(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
	}

	var (
		sheets []models.AnswerSheet
		roster Roster
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sheets, err = s.sheets.List(gctx, ownerID, code)
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = s.roster.RosterMap(gctx, assessment.SubjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]models.SheetView, 0, len(sheets))
	for _, sheet := range sheets {
		name, resolved := roster.Resolve(sheet.SchoolID)
		if !resolved {
			name = UnknownStudent
		}
		views = append(views, models.SheetView{AnswerSheet: sheet, DisplayName: name, Resolved: resolved})
	}
	return views, nil
}

// SheetDetail returns one sheet with its resolved identity.
func (s *ScoringService) SheetDetail(ctx context.Context, ownerID, code, schoolID string) (*models.SheetView, error) {
	assessment, found, err := s.assessments.FindByCode(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
	}

	var (
		sheet  *models.AnswerSheet
		roster Roster
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := s.loadSheet(gctx, ownerID, code, schoolID)
		sheet = loaded
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = s.roster.RosterMap(gctx, assessment.SubjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	name, resolved := roster.Resolve(sheet.SchoolID)
	if !resolved {
		name = UnknownStudent
	}
	return &models.SheetView{AnswerSheet: *sheet, DisplayName: name, Resolved: resolved}, nil
}

func (s *ScoringService) loadSheet(ctx context.Context, ownerID, code, schoolID string) (*models.AnswerSheet, error) {
	sheet, found, err := s.sheets.Find(ctx, ownerID, code, schoolID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no answer sheet for school id %s", schoolID))
	}
	return sheet, nil
}

func (s *ScoringService) saveSheet(ctx context.Context, ownerID, code string, sheet *models.AnswerSheet) (*models.AnswerSheet, error) {
	sheet.UpdatedAt = s.now()
	if err := s.sheets.Save(ctx, ownerID, code, sheet); err != nil {
		return nil, err
	}
	return sheet, nil
}
