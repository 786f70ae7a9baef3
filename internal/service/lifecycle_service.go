package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
)

// codeAlphabet has 32 symbols; I, O, 0 and 1 are excluded because students
// copy codes by hand.
const (
	codeAlphabet    = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeLength      = 8
	maxCodeAttempts = 5
)

type assessmentLifecycleStore interface {
	FindByCode(ctx context.Context, ownerID, code string) (*models.Assessment, bool, error)
	Exists(ctx context.Context, ownerID, code string) (bool, error)
	Create(ctx context.Context, ownerID string, assessment *models.Assessment) error
	Delete(ctx context.Context, ownerID, code string) error
	ListBySubject(ctx context.Context, ownerID, subjectID string) ([]models.Assessment, error)
}

type answerKeyDeleter interface {
	Delete(ctx context.Context, ownerID, code string) error
}

type answerSheetCollectionDeleter interface {
	DeleteAll(ctx context.Context, ownerID, code string) error
}

type subjectLifecycleStore interface {
	Find(ctx context.Context, ownerID, subjectID string) (*models.Subject, bool, error)
	Save(ctx context.Context, ownerID string, subject *models.Subject) error
	Delete(ctx context.Context, ownerID, subjectID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Subject, error)
	ListBySection(ctx context.Context, ownerID, sectionID string) ([]models.Subject, error)
}

type sectionLifecycleStore interface {
	Find(ctx context.Context, ownerID, sectionID string) (*models.Section, bool, error)
	Save(ctx context.Context, ownerID string, section *models.Section) error
	Delete(ctx context.Context, ownerID, sectionID string) error
}

type enrollmentCollectionDeleter interface {
	DeleteAll(ctx context.Context, subjectID string) error
}

type inviteCodeStore interface {
	Save(ctx context.Context, invite *models.InviteCode) error
	Delete(ctx context.Context, subjectID string) error
}

// CreateAssessmentRequest describes assessment creation.
type CreateAssessmentRequest struct {
	Name      string `json:"name" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=quiz exam"`
	SubjectID string `json:"subject_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
}

// CreateSubjectRequest describes subject creation.
type CreateSubjectRequest struct {
	Name      string `json:"name" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
}

// CreateSectionRequest describes section creation.
type CreateSectionRequest struct {
	Name string `json:"name" validate:"required"`
}

// LifecycleService owns entity creation and the cascading deletes. The store
// has no cross-path transactions: each cascade fires its deletes
// concurrently per level and only removes the parent record once the level
// completes, so a crash can orphan children but never strand a reachable
// parent pointing at deleted data.
type LifecycleService struct {
	assessments assessmentLifecycleStore
	keys        answerKeyDeleter
	sheets      answerSheetCollectionDeleter
	subjects    subjectLifecycleStore
	sections    sectionLifecycleStore
	enrollments enrollmentCollectionDeleter
	invites     inviteCodeStore
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewLifecycleService constructs LifecycleService.
func NewLifecycleService(assessments assessmentLifecycleStore, keys answerKeyDeleter, sheets answerSheetCollectionDeleter, subjects subjectLifecycleStore, sections sectionLifecycleStore, enrollments enrollmentCollectionDeleter, invites inviteCodeStore, validate *validator.Validate, logger *zap.Logger) *LifecycleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		assessments: assessments,
		keys:        keys,
		sheets:      sheets,
		subjects:    subjects,
		sections:    sections,
		enrollments: enrollments,
		invites:     invites,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateAssessment mints a unique code and writes the assessment record.
// Collision odds are negligible at 32^8 combinations, but uniqueness keys
// the answer key and sheet paths, so every candidate is existence-checked
// before the write.
func (s *LifecycleService) CreateAssessment(ctx context.Context, ownerID string, req CreateAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if _, found, err := s.subjects.Find(ctx, ownerID, req.SubjectID); err != nil {
		return nil, err
	} else if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}

	code, err := s.mintCode(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	assessment := &models.Assessment{
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		Kind:      models.AssessmentKind(req.Kind),
		SubjectID: req.SubjectID,
		SectionID: req.SectionID,
		CreatedAt: s.now(),
	}
	if err := s.assessments.Create(ctx, ownerID, assessment); err != nil {
		return nil, err
	}
	return assessment, nil
}

func (s *LifecycleService) mintCode(ctx context.Context, ownerID string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
		}
		taken, err := s.assessments.Exists(ctx, ownerID, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		s.logger.Warn("assessment code collision", zap.String("owner_id", ownerID), zap.Int("attempt", attempt+1))
	}
	return "", appErrors.Clone(appErrors.ErrGenerationExhausted, fmt.Sprintf("no unique code after %d attempts", maxCodeAttempts))
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

// DeleteAssessment cascades over the answer key and the sheet collection
// concurrently, then removes the assessment record. A crash mid-cascade can
// leave orphaned key or sheet data; orphans are unreachable and tolerated.
func (s *LifecycleService) DeleteAssessment(ctx context.Context, ownerID, code string) error {
	if _, found, err := s.assessments.FindByCode(ctx, ownerID, code); err != nil {
		return err
	} else if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
	}
	return s.cascadeAssessment(ctx, ownerID, code)
}

func (s *LifecycleService) cascadeAssessment(ctx context.Context, ownerID, code string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.keys.Delete(gctx, ownerID, code) })
	g.Go(func() error { return s.sheets.DeleteAll(gctx, ownerID, code) })
	if err := g.Wait(); err != nil {
		return err
	}
	return s.assessments.Delete(ctx, ownerID, code)
}

// DeleteSubject cascades through every assessment under the subject, its
// enrollment collection and its invite code, then removes the subject
// record.
func (s *LifecycleService) DeleteSubject(ctx context.Context, ownerID, subjectID string) error {
	if _, found, err := s.subjects.Find(ctx, ownerID, subjectID); err != nil {
		return err
	} else if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return s.cascadeSubject(ctx, ownerID, subjectID)
}

func (s *LifecycleService) cascadeSubject(ctx context.Context, ownerID, subjectID string) error {
	assessments, err := s.assessments.ListBySubject(ctx, ownerID, subjectID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, assessment := range assessments {
		code := assessment.Code
		g.Go(func() error { return s.cascadeAssessment(gctx, ownerID, code) })
	}
	g.Go(func() error { return s.enrollments.DeleteAll(gctx, subjectID) })
	g.Go(func() error { return s.invites.Delete(gctx, subjectID) })
	if err := g.Wait(); err != nil {
		return err
	}
	return s.subjects.Delete(ctx, ownerID, subjectID)
}

// DeleteSection cascades through every subject under the section, then
// removes the section record.
func (s *LifecycleService) DeleteSection(ctx context.Context, ownerID, sectionID string) error {
	if _, found, err := s.sections.Find(ctx, ownerID, sectionID); err != nil {
		return err
	} else if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}

	subjects, err := s.subjects.ListBySection(ctx, ownerID, sectionID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, subject := range subjects {
		subjectID := subject.ID
		g.Go(func() error { return s.cascadeSubject(gctx, ownerID, subjectID) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return s.sections.Delete(ctx, ownerID, sectionID)
}

// CreateSubject writes the subject record and mints its invite code. The
// invite mint is advisory: a failure is logged and never fails creation.
func (s *LifecycleService) CreateSubject(ctx context.Context, ownerID string, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, found, err := s.sections.Find(ctx, ownerID, req.SectionID); err != nil {
		return nil, err
	} else if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}

	subject := &models.Subject{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		SectionID: req.SectionID,
		CreatedAt: s.now(),
	}
	if err := s.subjects.Save(ctx, ownerID, subject); err != nil {
		return nil, err
	}

	invite := &models.InviteCode{Code: uuid.NewString(), SubjectID: subject.ID, CreatedAt: s.now()}
	if err := s.invites.Save(ctx, invite); err != nil {
		s.logger.Warn("invite code generation failed", zap.String("subject_id", subject.ID), zap.Error(err))
	}
	return subject, nil
}

// ListSubjects returns every subject owned by the teacher account.
func (s *LifecycleService) ListSubjects(ctx context.Context, ownerID string) ([]models.Subject, error) {
	return s.subjects.ListByOwner(ctx, ownerID)
}

// CreateSection writes a section record.
func (s *LifecycleService) CreateSection(ctx context.Context, ownerID string, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section := &models.Section{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: s.now(),
	}
	if err := s.sections.Save(ctx, ownerID, section); err != nil {
		return nil, err
	}
	return section, nil
}

// RegenerateInvite replaces the invite code of a subject.
func (s *LifecycleService) RegenerateInvite(ctx context.Context, ownerID, subjectID string) (*models.InviteCode, error) {
	if _, found, err := s.subjects.Find(ctx, ownerID, subjectID); err != nil {
		return nil, err
	} else if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	invite := &models.InviteCode{Code: uuid.NewString(), SubjectID: subjectID, CreatedAt: s.now()}
	if err := s.invites.Save(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}
