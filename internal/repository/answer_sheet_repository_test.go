package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law4percent/checkme-api/internal/models"
	"github.com/law4percent/checkme-api/pkg/store"
)

func TestAnswerSheetListSortedBySchoolID(t *testing.T) {
	repo := NewAnswerSheetRepository(store.NewMemoryStore())
	ctx := context.Background()
	for _, id := range []string{"100003", "100001", "100002"} {
		require.NoError(t, repo.Save(ctx, "t1", "AB23CD45", &models.AnswerSheet{SchoolID: id}))
	}

	sheets, err := repo.List(ctx, "t1", "AB23CD45")
	require.NoError(t, err)
	require.Len(t, sheets, 3)
	assert.Equal(t, "100001", sheets[0].SchoolID)
	assert.Equal(t, "100002", sheets[1].SchoolID)
	assert.Equal(t, "100003", sheets[2].SchoolID)
}

func TestAnswerSheetFindBackfillsSchoolID(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewAnswerSheetRepository(kv)
	ctx := context.Background()

	// legacy document written without the school_id field
	require.NoError(t, kv.Set(ctx, AnswerSheetPath("t1", "AB23CD45", "100001"), map[string]interface{}{
		"total_score": 3,
	}))

	sheet, found, err := repo.Find(ctx, "t1", "AB23CD45", "100001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "100001", sheet.SchoolID)
	assert.Equal(t, 3, sheet.TotalScore)
}

func TestAnswerSheetSetFinalPreservesBreakdown(t *testing.T) {
	repo := NewAnswerSheetRepository(store.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "t1", "AB23CD45", &models.AnswerSheet{
		SchoolID:   "100001",
		TotalScore: 2,
		Breakdown: map[string]models.BreakdownEntry{
			"Q1": {StudentAnswer: "A", CorrectAnswer: "A", Result: models.ResultCorrect},
		},
	}))

	require.NoError(t, repo.SetFinal(ctx, "t1", "AB23CD45", "100001", true, time.Now().UTC()))

	sheet, found, err := repo.Find(ctx, "t1", "AB23CD45", "100001")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, sheet.IsFinal)
	assert.Equal(t, 2, sheet.TotalScore)
	assert.Equal(t, models.ResultCorrect, sheet.Breakdown["Q1"].Result)
}

func TestAnswerSheetDeleteAllScopedToAssessment(t *testing.T) {
	repo := NewAnswerSheetRepository(store.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "t1", "AB23CD45", &models.AnswerSheet{SchoolID: "100001"}))
	require.NoError(t, repo.Save(ctx, "t1", "ZZ23CD45", &models.AnswerSheet{SchoolID: "100001"}))

	require.NoError(t, repo.DeleteAll(ctx, "t1", "AB23CD45"))

	gone, err := repo.List(ctx, "t1", "AB23CD45")
	require.NoError(t, err)
	assert.Empty(t, gone)
	kept, err := repo.List(ctx, "t1", "ZZ23CD45")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
