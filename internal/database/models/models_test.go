package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/database/dbtest"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
)

func TestClaimReportOnlyOnce(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	ctx := t.Context()

	reports := []*types.Report{{
		ReporterID:     1,
		ReportedUserID: 2,
		Reason:         enum.ReportReasonCheating,
		Status:         enum.ReportStatusPending,
		CreatedAt:      time.Now().UTC(),
	}}
	require.NoError(t, db.Model().Report().CreateReports(ctx, reports))
	reportID := reports[0].ID

	expected := types.ReportState{Status: enum.ReportStatusPending}
	transition := types.ReportTransition{
		Status:          enum.ReportStatusDismissed,
		Action:          enum.ReportActionIgnored,
		ReviewerID:      7,
		ModerationLogID: uuid.New(),
	}

	ok, err := db.Model().Report().ClaimReport(ctx, reportID, expected, transition)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.Model().Report().ClaimReport(ctx, reportID, expected, transition)
	require.NoError(t, err)
	assert.False(t, ok)

	// A promotion must match both the status and the recorded action
	resolved := enum.ReportActionResolvedNoAction
	ok, err = db.Model().Report().ClaimReport(ctx, reportID,
		types.ReportState{Status: enum.ReportStatusDismissed, Action: &resolved}, transition)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := db.Model().Report().GetByIDs(ctx, []int64{reportID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, enum.ReportStatusDismissed, got[0].Status)
	require.NotNil(t, got[0].ModerationLogID)
	assert.Equal(t, transition.ModerationLogID, *got[0].ModerationLogID)
}

func TestReputationCounters(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	ctx := t.Context()
	users := db.Model().User()

	require.NoError(t, users.CreateUsers(ctx, []*types.User{{ID: 1, Username: "reporter"}}))

	require.NoError(t, users.IncrementReputation(ctx, 1, enum.ReputationOutcomeUnhelpful))
	require.NoError(t, users.ReverseReputation(ctx, 1))

	// Reversing again cannot push the unhelpful counter below zero
	require.NoError(t, users.ReverseReputation(ctx, 1))

	user, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.ReporterStats.HelpfulReports)
	assert.Equal(t, int64(0), user.ReporterStats.UnhelpfulReports)

	err = users.IncrementReputation(ctx, 1, "neutral")
	require.ErrorIs(t, err, types.ErrInvalidOutcome)

	err = users.IncrementReputation(ctx, 99, enum.ReputationOutcomeHelpful)
	require.ErrorIs(t, err, types.ErrUserNotFound)
}

func TestSetStaffCredential(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	ctx := t.Context()
	users := db.Model().User()

	require.NoError(t, users.CreateUsers(ctx, []*types.User{{ID: 1, Username: "mod_cleo"}}))
	require.NoError(t, users.SetStaffCredential(ctx, 1, "hash-1", true))

	user, err := users.GetBySecretHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, user.IsStaff)

	require.NoError(t, users.SetStaffCredential(ctx, 1, "", false))

	_, err = users.GetBySecretHash(ctx, "hash-1")
	require.ErrorIs(t, err, types.ErrUserNotFound)

	user, err = users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, user.IsStaff)

	err = users.SetStaffCredential(ctx, 42, "hash-2", true)
	require.ErrorIs(t, err, types.ErrUserNotFound)
}

func TestCompareAndSetRating(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	ctx := t.Context()
	users := db.Model().User()

	require.NoError(t, users.CreateUsers(ctx, []*types.User{
		{ID: 1, Username: "a", Rating: 1500},
		{ID: 2, Username: "b", Rating: 1700},
		{ID: 3, Username: "c", Rating: 1900, Banned: true, BanType: enum.BanTypePermanent},
	}))

	ok, err := users.CompareAndSetRating(ctx, 1, 1400, 1600)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = users.CompareAndSetRating(ctx, 1, 1500, 1600)
	require.NoError(t, err)
	assert.True(t, ok)

	rating, err := users.GetRating(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1600, rating)

	rank, err := users.RankForRating(ctx, 1600)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	_, err = users.GetRating(ctx, 42)
	require.ErrorIs(t, err, types.ErrUserNotFound)
}

func TestMatchRefundClaim(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	ctx := t.Context()
	matches := db.Model().Match()

	match := &types.Match{
		Competitive: true,
		EndedAt:     time.Now().UTC(),
		Players: []*types.MatchPlayer{
			{UserID: 1, Username: "a", RatingBefore: 1500, RatingAfter: 1520, RatingChange: 20},
			{UserID: 2, Username: "b", RatingBefore: 1500, RatingAfter: 1480, RatingChange: -20},
		},
	}
	require.NoError(t, matches.CreateMatch(ctx, match))
	require.NoError(t, matches.CreateMatch(ctx, &types.Match{
		EndedAt: time.Now().UTC(),
		Players: []*types.MatchPlayer{{UserID: 1, Username: "a"}},
	}))

	found, err := matches.FindMatchesByParticipant(ctx, 1, types.MatchFilter{CompetitiveOnly: true, UnrefundedOnly: true})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Len(t, found[0].Players, 2)

	logID := uuid.New()
	ok, err := matches.ClaimMatchRefund(ctx, match.ID, logID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches.ClaimMatchRefund(ctx, match.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	found, err = matches.FindMatchesByParticipant(ctx, 1, types.MatchFilter{CompetitiveOnly: true, UnrefundedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = matches.FindMatchesByParticipant(ctx, 2, types.MatchFilter{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].RatingRefunded)
	require.NotNil(t, found[0].RefundLogID)
	assert.Equal(t, logID, *found[0].RefundLogID)
}

func TestBanExpiryClaim(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	ctx := t.Context()
	users := db.Model().User()

	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)

	require.NoError(t, users.CreateUsers(ctx, []*types.User{
		{ID: 1, Username: "expired"},
		{ID: 2, Username: "active"},
		{ID: 3, Username: "permanent"},
	}))
	require.NoError(t, users.ApplyBan(ctx, 1, types.BanUpdate{Type: enum.BanTypeTemporary, ExpiresAt: &past, Reason: "x"}))
	require.NoError(t, users.ApplyBan(ctx, 2, types.BanUpdate{Type: enum.BanTypeTemporary, ExpiresAt: &future, Reason: "y"}))
	require.NoError(t, users.ApplyBan(ctx, 3, types.BanUpdate{Type: enum.BanTypePermanent, Reason: "z"}))

	expired, err := users.GetExpiredTemporaryBans(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(1), expired[0].ID)

	ok, err := users.ClaimBanExpiry(ctx, 1, *expired[0].BanExpiresAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.ClaimBanExpiry(ctx, 1, *expired[0].BanExpiresAt)
	require.NoError(t, err)
	assert.False(t, ok)

	user, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, user.Banned)
	assert.Equal(t, enum.BanTypeNone, user.BanType)
	assert.Equal(t, "x", user.BanReason)
}

func TestModerationLogPagination(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	ctx := t.Context()
	logs := db.Model().ModerationLog()

	for i := range 5 {
		action := enum.ModerationActionIgnore
		if i%2 == 0 {
			action = enum.ModerationActionUnban
		}
		require.NoError(t, logs.Append(ctx, &types.ModerationLog{
			ID:                uuid.New(),
			CreatedAt:         time.Now().UTC(),
			TargetUserID:      10,
			TargetUsername:    "target",
			ModeratorID:       1,
			ModeratorUsername: "mod",
			Action:            action,
		}))
	}

	page, cursor, err := logs.GetLogs(ctx, types.LogFilter{}, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)
	assert.Greater(t, page[0].Sequence, page[1].Sequence)

	seen := map[uuid.UUID]bool{page[0].ID: true, page[1].ID: true}
	for cursor != nil {
		page, cursor, err = logs.GetLogs(ctx, types.LogFilter{}, cursor, 2)
		require.NoError(t, err)
		for _, entry := range page {
			assert.False(t, seen[entry.ID])
			seen[entry.ID] = true
		}
	}
	assert.Len(t, seen, 5)

	unbans, _, err := logs.GetLogs(ctx, types.LogFilter{Action: enum.ModerationActionUnban}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, unbans, 3)

	entry, err := logs.GetByID(ctx, unbans[0].ID)
	require.NoError(t, err)
	assert.Equal(t, unbans[0].Sequence, entry.Sequence)

	_, err = logs.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, types.ErrNoLogsFound)
}
