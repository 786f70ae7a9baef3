package repository

import (
	"context"

	"github.com/law4percent/checkme-api/internal/models"
	"github.com/law4percent/checkme-api/pkg/store"
)

// AnswerKeyRepository persists answer keys. The scanning device writes to
// the same paths, so documents must round-trip through the shared encoding.
type AnswerKeyRepository struct {
	store store.Store
}

// NewAnswerKeyRepository constructs AnswerKeyRepository.
func NewAnswerKeyRepository(s store.Store) *AnswerKeyRepository {
	return &AnswerKeyRepository{store: s}
}

// Find loads the answer key of an assessment; found is false when the
// device has not scanned one yet.
func (r *AnswerKeyRepository) Find(ctx context.Context, ownerID, code string) (*models.AnswerKey, bool, error) {
	var key models.AnswerKey
	found, err := r.store.Get(ctx, AnswerKeyPath(ownerID, code), &key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &key, true, nil
}

// Save replaces the whole answer key document.
func (r *AnswerKeyRepository) Save(ctx context.Context, ownerID, code string, key *models.AnswerKey) error {
	return r.store.Set(ctx, AnswerKeyPath(ownerID, code), key)
}

// Delete removes the answer key. The owning assessment stays.
func (r *AnswerKeyRepository) Delete(ctx context.Context, ownerID, code string) error {
	return r.store.Delete(ctx, AnswerKeyPath(ownerID, code))
}
