package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/types/enum"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidOutcome = errors.New("invalid reputation outcome")
)

// Report is a complaint one user filed against another.
type Report struct {
	bun.BaseModel `bun:"table:reports,alias:r"`

	ID              int64              `bun:",pk,autoincrement" json:"id"`
	ReporterID      int64              `bun:",notnull"          json:"reporterId"`
	ReportedUserID  int64              `bun:",notnull"          json:"reportedUserId"`
	Reason          enum.ReportReason  `bun:",notnull"          json:"reason"`
	Description     string             `bun:",notnull"          json:"description"`
	MatchID         *int64             `bun:",nullzero"         json:"matchId"`
	Status          enum.ReportStatus  `bun:",notnull"          json:"status"`
	ActionTaken     *enum.ReportAction `bun:",nullzero"         json:"actionTaken"`
	ReviewedBy      *int64             `bun:",nullzero"         json:"reviewedBy"`
	ReviewedAt      *time.Time         `bun:",nullzero"         json:"reviewedAt"`
	ModeratorNotes  string             `bun:",notnull"          json:"-"` // Internal only
	ModerationLogID *uuid.UUID         `bun:"type:uuid,nullzero" json:"moderationLogId"`
	CreatedAt       time.Time          `bun:",notnull"          json:"createdAt"`
}

// ReportState is the status pair a claim expects to find on a report.
// A nil Action matches any action value.
type ReportState struct {
	Status enum.ReportStatus
	Action *enum.ReportAction
}

// ReportTransition is the state a successful claim writes onto a report.
type ReportTransition struct {
	Status          enum.ReportStatus
	Action          enum.ReportAction
	ReviewerID      int64
	Notes           string
	ModerationLogID uuid.UUID
}

// ReportFilter narrows a report enumeration for a reported user.
type ReportFilter struct {
	Status enum.ReportStatus
	Action *enum.ReportAction
	Reason *enum.ReportReason
}
