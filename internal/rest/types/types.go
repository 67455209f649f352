package types

import "time"

// UserRef identifies a user at the time an action was taken.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// RefundSummary describes the rating returned to opponents of a banned user.
type RefundSummary struct {
	TotalRefunded     int `json:"totalRefunded"`
	OpponentsAffected int `json:"opponentsAffected"`
	MatchesProcessed  int `json:"matchesProcessed"`
	FailedOpponents   int `json:"failedOpponents,omitempty"`
}

// ApplyActionRequest is the body of the apply action endpoint.
type ApplyActionRequest struct {
	Action          string  `json:"action"`
	TargetUserID    int64   `json:"targetUserId"`
	Reason          string  `json:"reason"`
	PublicNote      *string `json:"publicNote,omitempty"`
	DurationSeconds int64   `json:"durationSeconds,omitempty"`
	ReportIDs       []int64 `json:"reportIds,omitempty"`
	SkipRefund      bool    `json:"skipRefund,omitempty"`
}

// ApplyActionResponse is the result of an applied action.
type ApplyActionResponse struct {
	Success         bool           `json:"success"`
	Action          string         `json:"action"`
	TargetUser      UserRef        `json:"targetUser"`
	ModerationLogID string         `json:"moderationLogId"`
	ExpiresAt       *time.Time     `json:"expiresAt"`
	RefundSummary   *RefundSummary `json:"refundSummary"`
	Message         string         `json:"message"`
}

// PendingReport is a report waiting for a moderator.
type PendingReport struct {
	ID          int64     `json:"id"`
	ReporterID  int64     `json:"reporterId"`
	Reason      string    `json:"reason"`
	Description string    `json:"description"`
	MatchID     *int64    `json:"matchId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GetReportsResponse lists the pending reports against a user.
type GetReportsResponse struct {
	TargetUserID int64           `json:"targetUserId"`
	Reports      []PendingReport `json:"reports"`
}

// NameChange describes a forced rename in the audit log.
type NameChange struct {
	OldName string  `json:"oldName"`
	NewName *string `json:"newName"`
}

// LogEntry is one audit log entry as shown to staff.
type LogEntry struct {
	ID                string         `json:"id"`
	CreatedAt         time.Time      `json:"createdAt"`
	TargetUser        UserRef        `json:"targetUser"`
	Moderator         UserRef        `json:"moderator"`
	Action            string         `json:"action"`
	Reason            string         `json:"reason"`
	PublicNote        *string        `json:"publicNote,omitempty"`
	DurationSeconds   *int64         `json:"durationSeconds,omitempty"`
	ExpiresAt         *time.Time     `json:"expiresAt,omitempty"`
	NameChange        *NameChange    `json:"nameChange,omitempty"`
	RelatedReportIDs  []int64        `json:"relatedReportIds"`
	PromotedReportIDs []int64        `json:"promotedReportIds"`
	RefundSummary     *RefundSummary `json:"refundSummary,omitempty"`
}

// GetLogsResponse is one page of the audit log.
type GetLogsResponse struct {
	Logs       []LogEntry `json:"logs"`
	NextCursor *int64     `json:"nextCursor,omitempty"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
