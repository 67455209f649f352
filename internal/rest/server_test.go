package rest_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/database/dbtest"
	"github.com/worldtrek/warden/internal/database/service"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"github.com/worldtrek/warden/internal/moderation"
	"github.com/worldtrek/warden/internal/rest"
	restTypes "github.com/worldtrek/warden/internal/rest/types"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap/zaptest"
)

const (
	staffSecret  = "staff-secret"
	playerSecret = "player-secret"
)

type nopEnforcer struct{}

func (nopEnforcer) PushEnforcement(int64, enum.EnforcementKind) {}
func (nopEnforcer) InvalidateAuthCache(int64)                   {}

func newServer(t *testing.T) http.Handler {
	t.Helper()

	db := dbtest.New(t)
	logger := zaptest.NewLogger(t)

	require.NoError(t, db.Model().User().CreateUsers(t.Context(), []*types.User{
		{ID: 1, Username: "mod_ana", IsStaff: true, SecretHash: service.HashSecret(staffSecret)},
		{ID: 2, Username: "regular", SecretHash: service.HashSecret(playerSecret)},
		{ID: 10, Username: "pinpoint_pete", Rating: 2500},
		{ID: 100, Username: "reporter"},
	}))
	require.NoError(t, db.Model().Report().CreateReports(t.Context(), []*types.Report{{
		ReporterID:     100,
		ReportedUserID: 10,
		Reason:         enum.ReportReasonCheating,
		Description:    "instant guesses every round",
		Status:         enum.ReportStatusPending,
		CreatedAt:      time.Now().UTC(),
	}}))

	processor := moderation.NewProcessor(db, db.Service().Staff(), nopEnforcer{}, &config.ModerationConfig{
		RatingCeiling:     5000,
		RefundConcurrency: 2,
		RatingCASAttempts: 3,
	}, logger)

	return rest.NewServer(db, processor, logger, &config.APIConfig{RequestTimeout: 5000})
}

func do(t *testing.T, handler http.Handler, method, target, credential, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestApplyActionStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		credential string
		body       string
		wantStatus int
	}{
		{
			name:       "missing credential",
			body:       `{"action":"ignore","targetUserId":10}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not staff",
			credential: playerSecret,
			body:       `{"action":"ignore","targetUserId":10}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "malformed body",
			credential: staffSecret,
			body:       `{"action":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown action",
			credential: staffSecret,
			body:       `{"action":"mute","targetUserId":10}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing reason",
			credential: staffSecret,
			body:       `{"action":"ban_permanent","targetUserId":10}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duration that would wrap",
			credential: staffSecret,
			body:       `{"action":"ban_temporary","targetUserId":10,"reason":"smurfing","durationSeconds":18446744074}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duration one second over the cap",
			credential: staffSecret,
			body:       `{"action":"ban_temporary","targetUserId":10,"reason":"smurfing","durationSeconds":3153600001}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative duration",
			credential: staffSecret,
			body:       `{"action":"ban_temporary","targetUserId":10,"reason":"smurfing","durationSeconds":-5}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown target",
			credential: staffSecret,
			body:       `{"action":"ignore","targetUserId":404}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, newServer(t), http.MethodPost, "/v1/moderation/actions", tt.credential, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var response restTypes.ErrorResponse
			require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &response))
			assert.NotEmpty(t, response.Error)
		})
	}
}

func TestApplyActionAndReadBack(t *testing.T) {
	t.Parallel()

	server := newServer(t)

	rec := do(t, server, http.MethodGet, "/v1/moderation/reports?targetUserId=10", staffSecret, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var reports restTypes.GetReportsResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports.Reports, 1)
	assert.Equal(t, "cheating", reports.Reports[0].Reason)

	rec = do(t, server, http.MethodPost, "/v1/moderation/actions", staffSecret,
		`{"action":"ban_temporary","targetUserId":10,"reason":"internal: alt account","publicNote":"Suspended for a day.","durationSeconds":86400}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var applied restTypes.ApplyActionResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &applied))
	assert.True(t, applied.Success)
	assert.Equal(t, "ban_temporary", applied.Action)
	assert.Equal(t, restTypes.UserRef{ID: 10, Username: "pinpoint_pete"}, applied.TargetUser)
	assert.NotNil(t, applied.ExpiresAt)
	assert.Nil(t, applied.RefundSummary)
	assert.NotContains(t, rec.Body.String(), "alt account")

	rec = do(t, server, http.MethodGet, "/v1/moderation/reports?targetUserId=10", staffSecret, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &reports))
	assert.Empty(t, reports.Reports)

	rec = do(t, server, http.MethodGet, "/v1/moderation/logs?targetUserId=10&action=ban_temporary", staffSecret, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var logs restTypes.GetLogsResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, applied.ModerationLogID, logs.Logs[0].ID)
	assert.Equal(t, "mod_ana", logs.Logs[0].Moderator.Username)
	require.NotNil(t, logs.Logs[0].DurationSeconds)
	assert.Equal(t, int64(86400), *logs.Logs[0].DurationSeconds)
	assert.Len(t, logs.Logs[0].RelatedReportIDs, 1)
	assert.Nil(t, logs.NextCursor)
}

func TestApplyActionReturnsExplicitNulls(t *testing.T) {
	t.Parallel()

	rec := do(t, newServer(t), http.MethodPost, "/v1/moderation/actions", staffSecret,
		`{"action":"ignore","targetUserId":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.Contains(t, body, `"expiresAt":null`)
	assert.Contains(t, body, `"refundSummary":null`)
}

func TestApplyActionAcceptsLongestBan(t *testing.T) {
	t.Parallel()

	rec := do(t, newServer(t), http.MethodPost, "/v1/moderation/actions", staffSecret,
		`{"action":"ban_temporary","targetUserId":10,"reason":"smurfing","durationSeconds":3153600000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var applied restTypes.ApplyActionResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &applied))
	require.NotNil(t, applied.ExpiresAt)
	assert.True(t, applied.ExpiresAt.After(time.Now().AddDate(99, 0, 0)))
}

func TestGetLogsValidation(t *testing.T) {
	t.Parallel()

	server := newServer(t)

	tests := []struct {
		name       string
		target     string
		credential string
		wantStatus int
	}{
		{name: "no credential", target: "/v1/moderation/logs", wantStatus: http.StatusUnauthorized},
		{name: "not staff", target: "/v1/moderation/logs", credential: playerSecret, wantStatus: http.StatusForbidden},
		{name: "bad limit", target: "/v1/moderation/logs?limit=abc", credential: staffSecret, wantStatus: http.StatusBadRequest},
		{name: "bad action", target: "/v1/moderation/logs?action=mute", credential: staffSecret, wantStatus: http.StatusBadRequest},
		{name: "empty page", target: "/v1/moderation/logs?limit=5", credential: staffSecret, wantStatus: http.StatusOK},
		{name: "reports need target", target: "/v1/moderation/reports", credential: staffSecret, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, server, http.MethodGet, tt.target, tt.credential, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
