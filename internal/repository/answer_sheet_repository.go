package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/store"
)

// AnswerSheetRepository persists scanned answer sheets keyed by
// (assessment, school ID).
type AnswerSheetRepository struct {
	store store.Store
}

// NewAnswerSheetRepository constructs AnswerSheetRepository.
func NewAnswerSheetRepository(s store.Store) *AnswerSheetRepository {
	return &AnswerSheetRepository{store: s}
}

// Find loads one sheet; found is false when absent.
func (r *AnswerSheetRepository) Find(ctx context.Context, ownerID, code, schoolID string) (*models.AnswerSheet, bool, error) {
	var sheet models.AnswerSheet
	found, err := r.store.Get(ctx, AnswerSheetPath(ownerID, code, schoolID), &sheet)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	if sheet.SchoolID == "" {
		sheet.SchoolID = schoolID
	}
	return &sheet, true, nil
}

// Exists reports whether a sheet is present for the school ID.
func (r *AnswerSheetRepository) Exists(ctx context.Context, ownerID, code, schoolID string) (bool, error) {
	var probe json.RawMessage
	return r.store.Get(ctx, AnswerSheetPath(ownerID, code, schoolID), &probe)
}

// Save writes a sheet under its school ID.
func (r *AnswerSheetRepository) Save(ctx context.Context, ownerID, code string, sheet *models.AnswerSheet) error {
	return r.store.Set(ctx, AnswerSheetPath(ownerID, code, sheet.SchoolID), sheet)
}

// SetFinal patches only the finality fields, leaving the breakdown the
// scanner wrote untouched.
func (r *AnswerSheetRepository) SetFinal(ctx context.Context, ownerID, code, schoolID string, final bool, updatedAt time.Time) error {
	return r.store.Patch(ctx, AnswerSheetPath(ownerID, code, schoolID), map[string]interface{}{
		"is_final":   final,
		"updated_at": updatedAt,
	})
}

// Delete removes one sheet.
func (r *AnswerSheetRepository) Delete(ctx context.Context, ownerID, code, schoolID string) error {
	return r.store.Delete(ctx, AnswerSheetPath(ownerID, code, schoolID))
}

// DeleteAll removes the entire sheet collection of an assessment.
func (r *AnswerSheetRepository) DeleteAll(ctx context.Context, ownerID, code string) error {
	return r.store.DeleteAll(ctx, AnswerSheetsPrefix(ownerID, code))
}

// List returns every sheet of an assessment ordered by school ID.
func (r *AnswerSheetRepository) List(ctx context.Context, ownerID, code string) ([]models.AnswerSheet, error) {
	raw, err := r.store.List(ctx, AnswerSheetsPrefix(ownerID, code))
	if err != nil {
		return nil, err
	}
	sheets := make([]models.AnswerSheet, 0, len(raw))
	for schoolID, doc := range raw {
		var sheet models.AnswerSheet
		if err := json.Unmarshal(doc, &sheet); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("decode answer sheet %s", schoolID))
		}
		if sheet.SchoolID == "" {
			sheet.SchoolID = schoolID
		}
		sheets = append(sheets, sheet)
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].SchoolID < sheets[j].SchoolID })
	return sheets, nil
}
