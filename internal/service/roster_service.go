package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
)

// UnknownStudent is the display fallback when a scanned school ID matches no
// approved enrollment. An unresolved sheet is a valid, displayable state.
const UnknownStudent = "Unknown Student"

type rosterEnrollmentLister interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Enrollment, error)
}

// Roster maps an externally-assigned school ID to the display name of the
// approved enrollment that carries it.
type Roster map[string]string

// Resolve looks up a school ID; ok is false for the unresolved state.
func (r Roster) Resolve(schoolID string) (string, bool) {
	name, ok := r[schoolID]
	return name, ok
}

// DisplayName resolves a school ID with the UnknownStudent fallback.
func (r Roster) DisplayName(schoolID string) string {
	if name, ok := r[schoolID]; ok {
		return name
	}
	return UnknownStudent
}

// RosterService builds the school-ID lookup for a subject. The underlying
// store has no secondary index on school ID, so each build is a full
// subject-scoped scan; results are cached per subject and invalidated on
// every enrollment write so a teacher reads their own edits.
type RosterService struct {
	enrollments rosterEnrollmentLister
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewRosterService constructs RosterService.
func NewRosterService(enrollments rosterEnrollmentLister, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{enrollments: enrollments, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func rosterCacheKey(subjectID string) string {
	return fmt.Sprintf("roster:%s", subjectID)
}

// RosterMap returns the school ID to display name mapping for a subject.
// Only approved enrollments with a non-null school ID contribute; legacy
// records without one are skipped, not errors.
func (s *RosterService) RosterMap(ctx context.Context, subjectID string) (Roster, error) {
	if subjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject id required")
	}

	key := rosterCacheKey(subjectID)
	cached := Roster{}
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	enrollments, err := s.enrollments.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to scan enrollments")
	}

	roster := make(Roster)
	for _, enrollment := range enrollments {
		if enrollment.Status != models.EnrollmentStatusApproved {
			continue
		}
		if enrollment.SchoolID == nil || *enrollment.SchoolID == "" {
			continue
		}
		roster[*enrollment.SchoolID] = enrollment.DisplayName
	}

	if err := s.cache.Set(ctx, key, roster, s.cacheTTL); err != nil {
		s.logger.Warn("roster cache set failed", zap.String("subject_id", subjectID), zap.Error(err))
	}
	return roster, nil
}

// Invalidate drops the cached roster for a subject. Called after every
// enrollment write and after reassignments.
func (s *RosterService) Invalidate(ctx context.Context, subjectID string) {
	if err := s.cache.Invalidate(ctx, rosterCacheKey(subjectID)); err != nil {
		s.logger.Warn("roster cache invalidate failed", zap.String("subject_id", subjectID), zap.Error(err))
	}
}
