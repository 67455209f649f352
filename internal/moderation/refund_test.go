package moderation_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/moderation"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
)

func newRefundEngine(t *testing.T, f *fixture) *moderation.RefundEngine {
	t.Helper()

	repo := f.db.Model()
	return moderation.NewRefundEngine(repo.Match(), repo.User(), repo.Rating(), moderation.RefundOptions{
		RatingCeiling: ceiling,
		Concurrency:   4,
		CASAttempts:   10,
	}, noop.NewTracerProvider().Tracer("test"), zaptest.NewLogger(t))
}

func TestRefundClampsAtCeiling(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.createUsers(t, &types.User{ID: 30, Username: "atlas_amy", Rating: 4990})
	f.createMatch(t, true,
		player(targetID, targetName, 2470, 30),
		player(30, "atlas_amy", 5020, -30),
	)

	summary, err := newRefundEngine(t, f).RefundFromPunishedUser(t.Context(), types.UserRef{
		ID: targetID, Username: targetName,
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, types.RefundSummary{TotalRefunded: 10, OpponentsAffected: 1, MatchesProcessed: 1}, *summary)
	assert.Equal(t, ceiling, f.user(t, 30).Rating)

	adjustments, err := f.db.Model().Rating().GetAdjustments(t.Context(), 30, 10)
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, 10, adjustments[0].RefundAmount)
}

func TestRefundSkipsOpponentAtCeiling(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.createUsers(t, &types.User{ID: 30, Username: "atlas_amy", Rating: ceiling})
	f.createMatch(t, true,
		player(targetID, targetName, 2480, 20),
		player(30, "atlas_amy", 5000, -20),
	)

	summary, err := newRefundEngine(t, f).RefundFromPunishedUser(t.Context(), types.UserRef{
		ID: targetID, Username: targetName,
	}, uuid.New())
	require.NoError(t, err)

	// The match is still consumed
	assert.Equal(t, types.RefundSummary{MatchesProcessed: 1}, *summary)

	adjustments, err := f.db.Model().Rating().GetAdjustments(t.Context(), 30, 10)
	require.NoError(t, err)
	assert.Empty(t, adjustments)
}

func TestRefundSkipsDeletedOpponent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.createUsers(t, &types.User{ID: 30, Username: "atlas_amy", Rating: 1480})
	f.createMatch(t, true,
		player(targetID, targetName, 2450, 50),
		player(30, "atlas_amy", 1500, -20),
		player(404, "deleted_dan", 1500, -30),
	)

	summary, err := newRefundEngine(t, f).RefundFromPunishedUser(t.Context(), types.UserRef{
		ID: targetID, Username: targetName,
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, types.RefundSummary{TotalRefunded: 20, OpponentsAffected: 1, MatchesProcessed: 1}, *summary)
}

func TestConcurrentRefundsForSamePunishedUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.createUsers(t,
		&types.User{ID: 30, Username: "atlas_amy", Rating: 1480},
		&types.User{ID: 31, Username: "globe_gus", Rating: 1985},
	)
	for range 3 {
		f.createMatch(t, true,
			player(targetID, targetName, 2450, 50),
			player(30, "atlas_amy", 1500, -10),
			player(31, "globe_gus", 2000, -5),
		)
	}

	engine := newRefundEngine(t, f)
	punished := types.UserRef{ID: targetID, Username: targetName}

	var (
		mu        sync.Mutex
		summaries []*types.RefundSummary
		wg        sync.WaitGroup
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := engine.RefundFromPunishedUser(t.Context(), punished, uuid.New())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			summaries = append(summaries, summary)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var matches, total int
	for _, summary := range summaries {
		matches += summary.MatchesProcessed
		total += summary.TotalRefunded
	}
	assert.Equal(t, 3, matches)
	assert.Equal(t, 45, total)
	assert.Equal(t, 1510, f.user(t, 30).Rating)
	assert.Equal(t, 2000, f.user(t, 31).Rating)
}

func TestConcurrentRefundsForSameOpponent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.createUsers(t,
		&types.User{ID: 30, Username: "atlas_amy", Rating: 1400},
		&types.User{ID: 40, Username: "smurf_one", Rating: 2000},
		&types.User{ID: 41, Username: "smurf_two", Rating: 2000},
	)
	f.createMatch(t, true,
		player(40, "smurf_one", 1975, 25),
		player(30, "atlas_amy", 1425, -25),
	)
	f.createMatch(t, true,
		player(41, "smurf_two", 1960, 40),
		player(30, "atlas_amy", 1465, -40),
	)

	engine := newRefundEngine(t, f)

	var wg sync.WaitGroup
	for _, punished := range []types.UserRef{{ID: 40, Username: "smurf_one"}, {ID: 41, Username: "smurf_two"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.RefundFromPunishedUser(t.Context(), punished, uuid.New())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Neither credit is lost to the other
	assert.Equal(t, 1465, f.user(t, 30).Rating)

	adjustments, err := f.db.Model().Rating().GetAdjustments(t.Context(), 30, 10)
	require.NoError(t, err)
	assert.Len(t, adjustments, 2)
}
