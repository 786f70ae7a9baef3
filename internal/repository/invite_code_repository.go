package repository

import (
	"context"

	"github.com/law4percent/checkme-api/internal/models"
	"github.com/law4percent/checkme-api/pkg/store"
)

// InviteCodeRepository persists the per-subject invite code.
type InviteCodeRepository struct {
	store store.Store
}

// NewInviteCodeRepository constructs InviteCodeRepository.
func NewInviteCodeRepository(s store.Store) *InviteCodeRepository {
	return &InviteCodeRepository{store: s}
}

// Find loads the invite code of a subject; found is false when absent.
func (r *InviteCodeRepository) Find(ctx context.Context, subjectID string) (*models.InviteCode, bool, error) {
	var invite models.InviteCode
	found, err := r.store.Get(ctx, InviteCodePath(subjectID), &invite)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &invite, true, nil
}

// Save writes the invite code of a subject.
func (r *InviteCodeRepository) Save(ctx context.Context, invite *models.InviteCode) error {
	return r.store.Set(ctx, InviteCodePath(invite.SubjectID), invite)
}

// Delete removes the invite code of a subject.
func (r *InviteCodeRepository) Delete(ctx context.Context, subjectID string) error {
	return r.store.Delete(ctx, InviteCodePath(subjectID))
}
