package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/store"
)

// SubjectRepository persists subject records.
type SubjectRepository struct {
	store store.Store
}

// NewSubjectRepository constructs SubjectRepository.
func NewSubjectRepository(s store.Store) *SubjectRepository {
	return &SubjectRepository{store: s}
}

// Find loads one subject; found is false when absent.
func (r *SubjectRepository) Find(ctx context.Context, ownerID, subjectID string) (*models.Subject, bool, error) {
	var subject models.Subject
	found, err := r.store.Get(ctx, SubjectPath(ownerID, subjectID), &subject)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &subject, true, nil
}

// Save writes a subject record.
func (r *SubjectRepository) Save(ctx context.Context, ownerID string, subject *models.Subject) error {
	return r.store.Set(ctx, SubjectPath(ownerID, subject.ID), subject)
}

// Delete removes the subject record only.
func (r *SubjectRepository) Delete(ctx context.Context, ownerID, subjectID string) error {
	return r.store.Delete(ctx, SubjectPath(ownerID, subjectID))
}

// ListByOwner returns every subject under an owner.
func (r *SubjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Subject, error) {
	raw, err := r.store.List(ctx, store.Join(subjectsRoot, ownerID))
	if err != nil {
		return nil, err
	}
	subjects := make([]models.Subject, 0, len(raw))
	for id, doc := range raw {
		var subject models.Subject
		if err := json.Unmarshal(doc, &subject); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("decode subject %s", id))
		}
		if subject.ID == "" {
			subject.ID = id
		}
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

// ListBySection returns the owner's subjects attached to one section.
func (r *SubjectRepository) ListBySection(ctx context.Context, ownerID, sectionID string) ([]models.Subject, error) {
	all, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	filtered := all[:0]
	for _, subject := range all {
		if subject.SectionID == sectionID {
			filtered = append(filtered, subject)
		}
	}
	return filtered, nil
}
