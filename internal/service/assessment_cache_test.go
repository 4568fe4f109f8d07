package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-batch-grader/internal/grading"
	"github.com/noah-isme/gema-batch-grader/pkg/ai"
)

func newCacheUnderTest(t *testing.T) (*miniredis.Miniredis, grading.AssessmentCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewAssessmentCache(client, time.Hour, zerolog.Nop())
	require.NotNil(t, cache)
	return mr, cache
}

func TestAssessmentCacheRoundTrip(t *testing.T) {
	_, cache := newCacheUnderTest(t)
	ctx := context.Background()

	label := "Good"
	stored := ai.QualitativeResult{
		Judgments: []ai.CriterionJudgment{
			{CriterionID: "quality", SelectedLevelLabel: &label, Feedback: "tidy"},
		},
	}

	cache.Set(ctx, "assessment:abc", stored)

	loaded, ok := cache.Get(ctx, "assessment:abc")
	require.True(t, ok)
	require.Equal(t, stored.Judgments, loaded.Judgments)
}

func TestAssessmentCacheMiss(t *testing.T) {
	_, cache := newCacheUnderTest(t)

	_, ok := cache.Get(context.Background(), "assessment:missing")
	require.False(t, ok)
}

func TestAssessmentCacheExpiry(t *testing.T) {
	mr, cache := newCacheUnderTest(t)
	ctx := context.Background()

	cache.Set(ctx, "assessment:abc", ai.QualitativeResult{
		Judgments: []ai.CriterionJudgment{{CriterionID: "quality"}},
	})

	mr.FastForward(2 * time.Hour)

	_, ok := cache.Get(ctx, "assessment:abc")
	require.False(t, ok)
}

func TestAssessmentCacheCorruptEntryTreatedAsMiss(t *testing.T) {
	mr, cache := newCacheUnderTest(t)
	require.NoError(t, mr.Set("assessment:abc", "not json"))

	_, ok := cache.Get(context.Background(), "assessment:abc")
	require.False(t, ok)
}

func TestAssessmentCacheNilClientDisables(t *testing.T) {
	require.Nil(t, NewAssessmentCache(nil, time.Hour, zerolog.Nop()))
}

func TestProgressNotifierNilConnectionDisables(t *testing.T) {
	require.Nil(t, NewProgressNotifier(nil, "grader.progress", zerolog.Nop()))
}
