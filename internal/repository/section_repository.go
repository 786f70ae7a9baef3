package repository

import (
	"context"

	"github.com/law4percent/checkme-api/internal/models"
	"github.com/law4percent/checkme-api/pkg/store"
)

// SectionRepository persists section records.
type SectionRepository struct {
	store store.Store
}

// NewSectionRepository constructs SectionRepository.
func NewSectionRepository(s store.Store) *SectionRepository {
	return &SectionRepository{store: s}
}

// Find loads one section; found is false when absent.
func (r *SectionRepository) Find(ctx context.Context, ownerID, sectionID string) (*models.Section, bool, error) {
	var section models.Section
	found, err := r.store.Get(ctx, SectionPath(ownerID, sectionID), &section)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &section, true, nil
}

// Save writes a section record.
func (r *SectionRepository) Save(ctx context.Context, ownerID string, section *models.Section) error {
	return r.store.Set(ctx, SectionPath(ownerID, section.ID), section)
}

// Delete removes the section record only.
func (r *SectionRepository) Delete(ctx context.Context, ownerID, sectionID string) error {
	return r.store.Delete(ctx, SectionPath(ownerID, sectionID))
}
