package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/types/enum"
)

var ErrNoLogsFound = errors.New("no logs found")

// SystemModerator is the snapshot recorded for actions taken by background workers.
var SystemModerator = UserRef{ID: 0, Username: "system"} //nolint:gochecknoglobals // -

// RefundSummary describes what a rating refund run credited.
type RefundSummary struct {
	TotalRefunded     int `json:"totalRefunded"`
	OpponentsAffected int `json:"opponentsAffected"`
	MatchesProcessed  int `json:"matchesProcessed"`
	FailedOpponents   int `json:"failedOpponents,omitempty"`
}

// NameChangeDetail records a forced rename. NewName stays nil until the user submits one.
type NameChangeDetail struct {
	OldName string  `json:"oldName"`
	NewName *string `json:"newName"`
}

// ModerationLog is one immutable audit entry. Reason is internal and PublicNote is shown to the user;
// the two are never derived from one another.
type ModerationLog struct {
	bun.BaseModel `bun:"table:moderation_logs,alias:ml"`

	Sequence          int64                 `bun:",pk,autoincrement"       json:"-"`
	ID                uuid.UUID             `bun:"type:uuid,notnull,unique" json:"id"`
	CreatedAt         time.Time             `bun:",notnull"                json:"createdAt"`
	TargetUserID      int64                 `bun:",notnull"                json:"targetUserId"`
	TargetUsername    string                `bun:",notnull"                json:"targetUsername"`
	ModeratorID       int64                 `bun:",notnull"                json:"moderatorId"`
	ModeratorUsername string                `bun:",notnull"                json:"moderatorUsername"`
	Action            enum.ModerationAction `bun:",notnull"                json:"action"`
	Reason            string                `bun:",notnull"                json:"reason"`
	PublicNote        *string               `bun:",nullzero"               json:"publicNote"`
	DurationSeconds   *int64                `bun:",nullzero"               json:"durationSeconds"`
	ExpiresAt         *time.Time            `bun:",nullzero"               json:"expiresAt"`
	NameChange        *NameChangeDetail     `bun:",nullzero"               json:"nameChange"`
	RelatedReportIDs  []int64               `bun:",nullzero"               json:"relatedReportIds"`
	PromotedReportIDs []int64               `bun:",nullzero"               json:"promotedReportIds"`
	RefundSummary     *RefundSummary        `bun:",nullzero"               json:"refundSummary"`
}

// LogFilter is used to provide a filter criteria for retrieving moderation logs.
// Zero values match everything.
type LogFilter struct {
	TargetUserID int64
	ModeratorID  int64
	Action       enum.ModerationAction
}

// LogCursor represents a pagination cursor for moderation logs.
type LogCursor struct {
	Sequence int64
}
