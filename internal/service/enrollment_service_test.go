package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law4percent/checkme-api/internal/models"
	"github.com/law4percent/checkme-api/internal/repository"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/store"
)

func newEnrollmentFixture(t *testing.T) (*EnrollmentService, *repository.EnrollmentRepository, *repository.InviteCodeRepository) {
	t.Helper()
	kv := store.NewMemoryStore()
	enrollments := repository.NewEnrollmentRepository(kv)
	invites := repository.NewInviteCodeRepository(kv)
	svc := NewEnrollmentService(enrollments, invites, nil, nil, nil)
	return svc, enrollments, invites
}

func TestJoinCreatesPendingEnrollment(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(t)
	ctx := context.Background()

	enrollment, err := svc.Join(ctx, "acc-1", JoinRequest{
		SubjectID:   testSubject,
		SchoolID:    "100001",
		DisplayName: "Ana Cruz",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	require.NotNil(t, enrollment.SchoolID)
	assert.Equal(t, "100001", *enrollment.SchoolID)
	assert.Nil(t, enrollment.DecidedAt)
}

func TestJoinRejectsDuplicate(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(t)
	ctx := context.Background()
	req := JoinRequest{SubjectID: testSubject, SchoolID: "100001", DisplayName: "Ana Cruz"}

	_, err := svc.Join(ctx, "acc-1", req)
	require.NoError(t, err)
	_, err = svc.Join(ctx, "acc-1", req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestJoinValidatesInviteCode(t *testing.T) {
	svc, _, invites := newEnrollmentFixture(t)
	ctx := context.Background()
	require.NoError(t, invites.Save(ctx, &models.InviteCode{Code: "good-code", SubjectID: testSubject}))

	_, err := svc.Join(ctx, "acc-1", JoinRequest{
		SubjectID:   testSubject,
		SchoolID:    "100001",
		DisplayName: "Ana Cruz",
		InviteCode:  "bad-code",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Join(ctx, "acc-1", JoinRequest{
		SubjectID:   testSubject,
		SchoolID:    "100001",
		DisplayName: "Ana Cruz",
		InviteCode:  "good-code",
	})
	require.NoError(t, err)
}

func TestDecideApprovesAndStamps(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := svc.Join(ctx, "acc-1", JoinRequest{SubjectID: testSubject, SchoolID: "100001", DisplayName: "Ana Cruz"})
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, testSubject, "acc-1", DecideRequest{Decision: "approve"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, decided.Status)
	assert.NotNil(t, decided.DecidedAt)
}

func TestDecideRefusesAlreadyDecided(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := svc.Join(ctx, "acc-1", JoinRequest{SubjectID: testSubject, SchoolID: "100001", DisplayName: "Ana Cruz"})
	require.NoError(t, err)
	_, err = svc.Decide(ctx, testSubject, "acc-1", DecideRequest{Decision: "reject"})
	require.NoError(t, err)

	_, err = svc.Decide(ctx, testSubject, "acc-1", DecideRequest{Decision: "approve"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestInviteEnrollsApproved(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(t)
	ctx := context.Background()

	enrollment, err := svc.Invite(ctx, testSubject, InviteStudentRequest{
		AccountID:   "acc-2",
		SchoolID:    "100002",
		DisplayName: "Ben Reyes",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, enrollment.Status)
	assert.NotNil(t, enrollment.DecidedAt)
}

func TestUnenrollRemovesRecord(t *testing.T) {
	svc, enrollments, _ := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := svc.Join(ctx, "acc-1", JoinRequest{SubjectID: testSubject, SchoolID: "100001", DisplayName: "Ana Cruz"})
	require.NoError(t, err)

	require.NoError(t, svc.Unenroll(ctx, testSubject, "acc-1"))

	_, found, err := enrollments.Find(ctx, testSubject, "acc-1")
	require.NoError(t, err)
	assert.False(t, found)

	err = svc.Unenroll(ctx, testSubject, "acc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := svc.Join(ctx, "acc-1", JoinRequest{SubjectID: testSubject, SchoolID: "100001", DisplayName: "Ana Cruz"})
	require.NoError(t, err)
	_, err = svc.Invite(ctx, testSubject, InviteStudentRequest{AccountID: "acc-2", SchoolID: "100002", DisplayName: "Ben Reyes"})
	require.NoError(t, err)

	all, err := svc.List(ctx, testSubject, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.List(ctx, testSubject, models.EnrollmentStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "acc-1", pending[0].AccountID)
}
