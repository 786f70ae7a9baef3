package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/store"
)

// AssessmentRepository persists assessment records.
type AssessmentRepository struct {
	store store.Store
}

// NewAssessmentRepository constructs AssessmentRepository.
func NewAssessmentRepository(s store.Store) *AssessmentRepository {
	return &AssessmentRepository{store: s}
}

// FindByCode loads one assessment; found is false when absent.
func (r *AssessmentRepository) FindByCode(ctx context.Context, ownerID, code string) (*models.Assessment, bool, error) {
	var assessment models.Assessment
	found, err := r.store.Get(ctx, AssessmentPath(ownerID, code), &assessment)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &assessment, true, nil
}

// Exists reports whether a code is already taken within the owner scope.
func (r *AssessmentRepository) Exists(ctx context.Context, ownerID, code string) (bool, error) {
	var probe json.RawMessage
	return r.store.Get(ctx, AssessmentPath(ownerID, code), &probe)
}

// Create writes a new assessment record.
func (r *AssessmentRepository) Create(ctx context.Context, ownerID string, assessment *models.Assessment) error {
	return r.store.Set(ctx, AssessmentPath(ownerID, assessment.Code), assessment)
}

// Delete removes the assessment record only; cascading its children is the
// lifecycle service's job.
func (r *AssessmentRepository) Delete(ctx context.Context, ownerID, code string) error {
	return r.store.Delete(ctx, AssessmentPath(ownerID, code))
}

// ListByOwner returns every assessment under an owner.
func (r *AssessmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Assessment, error) {
	raw, err := r.store.List(ctx, store.Join(assessmentsRoot, ownerID))
	if err != nil {
		return nil, err
	}
	assessments := make([]models.Assessment, 0, len(raw))
	for code, doc := range raw {
		var assessment models.Assessment
		if err := json.Unmarshal(doc, &assessment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("decode assessment %s", code))
		}
		if assessment.Code == "" {
			assessment.Code = code
		}
		assessments = append(assessments, assessment)
	}
	return assessments, nil
}

// ListBySubject returns the owner's assessments attached to one subject.
func (r *AssessmentRepository) ListBySubject(ctx context.Context, ownerID, subjectID string) ([]models.Assessment, error) {
	all, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	filtered := all[:0]
	for _, assessment := range all {
		if assessment.SubjectID == subjectID {
			filtered = append(filtered, assessment)
		}
	}
	return filtered, nil
}
