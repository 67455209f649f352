package moderation_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/database"
	"github.com/worldtrek/warden/internal/database/dbtest"
	"github.com/worldtrek/warden/internal/database/service"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"github.com/worldtrek/warden/internal/moderation"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap/zaptest"
)

const (
	staffSecret  = "staff-secret"
	staff2Secret = "staff-secret-2"
	playerSecret = "player-secret"

	staffID    int64 = 1
	staff2ID   int64 = 2
	playerID   int64 = 3
	targetID   int64 = 10
	ceiling          = 5000
	targetName       = "pinpoint_pete"
)

// recordingEnforcer captures live-session effects instead of delivering them.
type recordingEnforcer struct {
	mu          sync.Mutex
	pushes      []enforcementPush
	invalidated []int64

	// afterPush runs once a push is recorded. Set it before calling Apply.
	afterPush func()
}

type enforcementPush struct {
	userID int64
	kind   enum.EnforcementKind
}

func (e *recordingEnforcer) PushEnforcement(userID int64, kind enum.EnforcementKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pushes = append(e.pushes, enforcementPush{userID: userID, kind: kind})
	if e.afterPush != nil {
		e.afterPush()
	}
}

func (e *recordingEnforcer) InvalidateAuthCache(userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invalidated = append(e.invalidated, userID)
}

func (e *recordingEnforcer) snapshot() ([]enforcementPush, []int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]enforcementPush(nil), e.pushes...), append([]int64(nil), e.invalidated...)
}

type fixture struct {
	db        database.Client
	enforcer  *recordingEnforcer
	processor *moderation.Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	enforcer := &recordingEnforcer{}
	cfg := &config.ModerationConfig{
		RatingCeiling:     ceiling,
		RefundConcurrency: 4,
		RatingCASAttempts: 5,
	}

	f := &fixture{
		db:        db,
		enforcer:  enforcer,
		processor: moderation.NewProcessor(db, db.Service().Staff(), enforcer, cfg, zaptest.NewLogger(t)),
	}

	f.createUsers(t,
		&types.User{ID: staffID, Username: "mod_ana", IsStaff: true, SecretHash: service.HashSecret(staffSecret)},
		&types.User{ID: staff2ID, Username: "mod_ben", IsStaff: true, SecretHash: service.HashSecret(staff2Secret)},
		&types.User{ID: playerID, Username: "regular", SecretHash: service.HashSecret(playerSecret)},
		&types.User{ID: targetID, Username: targetName, Rating: 2500},
	)

	return f
}

func (f *fixture) createUsers(t *testing.T, users ...*types.User) {
	t.Helper()
	require.NoError(t, f.db.Model().User().CreateUsers(t.Context(), users))
}

// createReporters creates n reporter accounts starting at firstID.
func (f *fixture) createReporters(t *testing.T, firstID int64, n int) []int64 {
	t.Helper()

	ids := make([]int64, 0, n)
	users := make([]*types.User, 0, n)
	for i := range n {
		id := firstID + int64(i)
		ids = append(ids, id)
		users = append(users, &types.User{ID: id, Username: fmt.Sprintf("reporter_%d", id)})
	}
	f.createUsers(t, users...)

	return ids
}

// fileReports creates pending reports against the target and returns their IDs.
func (f *fixture) fileReports(t *testing.T, target int64, reporters []int64, reasons ...enum.ReportReason) []int64 {
	t.Helper()
	require.Len(t, reasons, len(reporters))

	reports := make([]*types.Report, 0, len(reporters))
	for i, reporter := range reporters {
		reports = append(reports, &types.Report{
			ReporterID:     reporter,
			ReportedUserID: target,
			Reason:         reasons[i],
			Description:    "filed from match review",
			Status:         enum.ReportStatusPending,
			CreatedAt:      time.Now().UTC(),
		})
	}
	require.NoError(t, f.db.Model().Report().CreateReports(t.Context(), reports))

	ids := make([]int64, 0, len(reports))
	for _, report := range reports {
		ids = append(ids, report.ID)
	}
	return ids
}

func (f *fixture) createMatch(t *testing.T, competitive bool, players ...*types.MatchPlayer) int64 {
	t.Helper()

	match := &types.Match{
		Competitive: competitive,
		EndedAt:     time.Now().UTC(),
		Players:     players,
	}
	require.NoError(t, f.db.Model().Match().CreateMatch(t.Context(), match))
	return match.ID
}

func (f *fixture) user(t *testing.T, id int64) *types.User {
	t.Helper()
	user, err := f.db.Model().User().GetByID(t.Context(), id)
	require.NoError(t, err)
	return user
}

func (f *fixture) reports(t *testing.T, ids []int64) map[int64]*types.Report {
	t.Helper()
	reports, err := f.db.Model().Report().GetByIDs(t.Context(), ids)
	require.NoError(t, err)

	byID := make(map[int64]*types.Report, len(reports))
	for _, report := range reports {
		byID[report.ID] = report
	}
	return byID
}

func (f *fixture) logs(t *testing.T, filter types.LogFilter) []*types.ModerationLog {
	t.Helper()
	logs, _, err := f.db.Service().Log().GetLogs(t.Context(), filter, nil, 100)
	require.NoError(t, err)
	return logs
}

func player(userID int64, username string, before, change int) *types.MatchPlayer {
	return &types.MatchPlayer{
		UserID:       userID,
		Username:     username,
		RatingBefore: before,
		RatingAfter:  before + change,
		RatingChange: change,
	}
}

func note(s string) *string {
	return &s
}
