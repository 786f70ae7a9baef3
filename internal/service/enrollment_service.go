package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
)

type enrollmentStore interface {
	Find(ctx context.Context, subjectID, accountID string) (*models.Enrollment, bool, error)
	Save(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, subjectID, accountID string) error
	ListBySubject(ctx context.Context, subjectID string) ([]models.Enrollment, error)
}

type inviteCodeReader interface {
	Find(ctx context.Context, subjectID string) (*models.InviteCode, bool, error)
}

// JoinRequest is a student's request to enter a subject.
type JoinRequest struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	SchoolID    string `json:"school_id" validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
	Contact     string `json:"contact"`
	InviteCode  string `json:"invite_code"`
}

// DecideRequest is the teacher's verdict on a pending enrollment.
type DecideRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// InviteStudentRequest lets a teacher enroll a student directly, already
// approved.
type InviteStudentRequest struct {
	AccountID   string `json:"account_id" validate:"required"`
	SchoolID    string `json:"school_id" validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
	Contact     string `json:"contact"`
}

// EnrollmentService manages the student side of a subject: join requests,
// teacher decisions and removals. Every write invalidates the subject's
// cached roster so sheet listings pick up the change.
type EnrollmentService struct {
	enrollments enrollmentStore
	invites     inviteCodeReader
	roster      *RosterService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentStore, invites inviteCodeReader, roster *RosterService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		invites:     invites,
		roster:      roster,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Join records a pending enrollment for the account. If an invite code is
// supplied it must match the subject's current code.
func (s *EnrollmentService) Join(ctx context.Context, accountID string, req JoinRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid join payload")
	}

	if req.InviteCode != "" {
		invite, found, err := s.invites.Find(ctx, req.SubjectID)
		if err != nil {
			return nil, err
		}
		if !found || invite.Code != req.InviteCode {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid invite code")
		}
	}

	if _, found, err := s.enrollments.Find(ctx, req.SubjectID, accountID); err != nil {
		return nil, err
	} else if found {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this subject")
	}

	schoolID := req.SchoolID
	enrollment := &models.Enrollment{
		AccountID:   accountID,
		SubjectID:   req.SubjectID,
		Status:      models.EnrollmentStatusPending,
		SchoolID:    &schoolID,
		DisplayName: req.DisplayName,
		Contact:     req.Contact,
		JoinedAt:    s.now(),
	}
	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.SubjectID)
	return enrollment, nil
}

// Decide approves or rejects a pending enrollment.
func (s *EnrollmentService) Decide(ctx context.Context, subjectID, accountID string, req DecideRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	enrollment, found, err := s.enrollments.Find(ctx, subjectID, accountID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	if enrollment.Status != models.EnrollmentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already decided")
	}

	switch req.Decision {
	case "approve":
		enrollment.Status = models.EnrollmentStatusApproved
	case "reject":
		enrollment.Status = models.EnrollmentStatusRejected
	}
	decidedAt := s.now()
	enrollment.DecidedAt = &decidedAt

	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		return nil, err
	}
	s.invalidate(ctx, subjectID)
	return enrollment, nil
}

// Invite enrolls a student directly with approved status, bypassing the
// join request flow.
func (s *EnrollmentService) Invite(ctx context.Context, subjectID string, req InviteStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invite payload")
	}

	if _, found, err := s.enrollments.Find(ctx, subjectID, req.AccountID); err != nil {
		return nil, err
	} else if found {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled")
	}

	schoolID := req.SchoolID
	decidedAt := s.now()
	enrollment := &models.Enrollment{
		AccountID:   req.AccountID,
		SubjectID:   subjectID,
		Status:      models.EnrollmentStatusApproved,
		SchoolID:    &schoolID,
		DisplayName: req.DisplayName,
		Contact:     req.Contact,
		JoinedAt:    s.now(),
		DecidedAt:   &decidedAt,
	}
	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		return nil, err
	}
	s.invalidate(ctx, subjectID)
	return enrollment, nil
}

// Unenroll removes the student's enrollment record.
func (s *EnrollmentService) Unenroll(ctx context.Context, subjectID, accountID string) error {
	if _, found, err := s.enrollments.Find(ctx, subjectID, accountID); err != nil {
		return err
	} else if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	if err := s.enrollments.Delete(ctx, subjectID, accountID); err != nil {
		return err
	}
	s.invalidate(ctx, subjectID)
	return nil
}

// List returns enrollments for a subject, optionally filtered by status.
func (s *EnrollmentService) List(ctx context.Context, subjectID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	enrollments, err := s.enrollments.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return enrollments, nil
	}
	filtered := make([]models.Enrollment, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Status == status {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (s *EnrollmentService) invalidate(ctx context.Context, subjectID string) {
	if s.roster != nil {
		s.roster.Invalidate(ctx, subjectID)
	}
}
