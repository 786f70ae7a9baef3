package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
)

type reassignSheetStore interface {
	Find(ctx context.Context, ownerID, code, schoolID string) (*models.AnswerSheet, bool, error)
	Exists(ctx context.Context, ownerID, code, schoolID string) (bool, error)
	Save(ctx context.Context, ownerID, code string, sheet *models.AnswerSheet) error
	Delete(ctx context.Context, ownerID, code, schoolID string) error
}

type reassignAssessmentReader interface {
	FindByCode(ctx context.Context, ownerID, code string) (*models.Assessment, bool, error)
}

// ReassignRequest moves a sheet between school IDs under one assessment.
type ReassignRequest struct {
	OldSchoolID string `json:"old_school_id" validate:"required"`
	NewSchoolID string `json:"new_school_id" validate:"required"`
}

// ReassignService relocates answer sheets recorded under the wrong school
// ID, typically after a misread fill-in on the scanned sheet.
type ReassignService struct {
	sheets      reassignSheetStore
	assessments reassignAssessmentReader
	roster      *RosterService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewReassignService constructs ReassignService.
func NewReassignService(sheets reassignSheetStore, assessments reassignAssessmentReader, roster *RosterService, validate *validator.Validate, logger *zap.Logger) *ReassignService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReassignService{
		sheets:      sheets,
		assessments: assessments,
		roster:      roster,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Reassign moves the sheet at the old school ID to the new one. The target
// must be vacant: an occupied target aborts before anything is written, so a
// rejected move leaves both records untouched. Copy-then-delete ordering
// means a crash between the two writes duplicates the sheet rather than
// losing it.
func (s *ReassignService) Reassign(ctx context.Context, ownerID, code string, req ReassignRequest) (*models.AnswerSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassign payload")
	}
	if req.OldSchoolID == req.NewSchoolID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "old and new school IDs must differ")
	}

	sheet, found, err := s.sheets.Find(ctx, ownerID, code, req.OldSchoolID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no sheet at the source school ID")
	}

	occupied, err := s.sheets.Exists(ctx, ownerID, code, req.NewSchoolID)
	if err != nil {
		return nil, err
	}
	if occupied {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a sheet already exists at the target school ID")
	}

	sheet.SchoolID = req.NewSchoolID
	sheet.UpdatedAt = s.now()
	if err := s.sheets.Save(ctx, ownerID, code, sheet); err != nil {
		return nil, err
	}
	if err := s.sheets.Delete(ctx, ownerID, code, req.OldSchoolID); err != nil {
		return nil, err
	}

	s.invalidateRoster(ctx, ownerID, code)
	return sheet, nil
}

// invalidateRoster drops the cached roster for the assessment's subject so
// the next listing resolves the moved sheet fresh. Best effort.
func (s *ReassignService) invalidateRoster(ctx context.Context, ownerID, code string) {
	if s.roster == nil {
		return
	}
	assessment, found, err := s.assessments.FindByCode(ctx, ownerID, code)
	if err != nil || !found {
		s.logger.Warn("roster invalidation skipped", zap.String("code", code), zap.Error(err))
		return
	}
	s.roster.Invalidate(ctx, assessment.SubjectID)
}
