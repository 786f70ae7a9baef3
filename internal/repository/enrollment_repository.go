package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/store"
)

// EnrollmentRepository persists subject membership records.
type EnrollmentRepository struct {
	store store.Store
}

// NewEnrollmentRepository constructs EnrollmentRepository.
func NewEnrollmentRepository(s store.Store) *EnrollmentRepository {
	return &EnrollmentRepository{store: s}
}

// Find loads one enrollment; found is false when absent.
func (r *EnrollmentRepository) Find(ctx context.Context, subjectID, accountID string) (*models.Enrollment, bool, error) {
	var enrollment models.Enrollment
	found, err := r.store.Get(ctx, EnrollmentPath(subjectID, accountID), &enrollment)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &enrollment, true, nil
}

// Save writes an enrollment record.
func (r *EnrollmentRepository) Save(ctx context.Context, enrollment *models.Enrollment) error {
	return r.store.Set(ctx, EnrollmentPath(enrollment.SubjectID, enrollment.AccountID), enrollment)
}

// Delete removes one enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, subjectID, accountID string) error {
	return r.store.Delete(ctx, EnrollmentPath(subjectID, accountID))
}

// DeleteAll removes the whole enrollment collection of a subject.
func (r *EnrollmentRepository) DeleteAll(ctx context.Context, subjectID string) error {
	return r.store.DeleteAll(ctx, EnrollmentsPrefix(subjectID))
}

// ListBySubject returns every enrollment of a subject ordered by account ID.
// There is no secondary index on school ID; resolvers scan this collection.
func (r *EnrollmentRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Enrollment, error) {
	raw, err := r.store.List(ctx, EnrollmentsPrefix(subjectID))
	if err != nil {
		return nil, err
	}
	enrollments := make([]models.Enrollment, 0, len(raw))
	for accountID, doc := range raw {
		var enrollment models.Enrollment
		if err := json.Unmarshal(doc, &enrollment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("decode enrollment %s", accountID))
		}
		if enrollment.AccountID == "" {
			enrollment.AccountID = accountID
		}
		if enrollment.SubjectID == "" {
			enrollment.SubjectID = subjectID
		}
		enrollments = append(enrollments, enrollment)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].AccountID < enrollments[j].AccountID })
	return enrollments, nil
}
