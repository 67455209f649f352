package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/types/enum"
)

// RatingAdjustment is one row in a user's rating timeline.
type RatingAdjustment struct {
	bun.BaseModel `bun:"table:rating_adjustments,alias:ra"`

	ID               int64              `bun:",pk,autoincrement" json:"id"`
	UserID           int64              `bun:",notnull"          json:"userId"`
	CreatedAt        time.Time          `bun:",notnull"          json:"createdAt"`
	Rating           int                `bun:",notnull"          json:"rating"`
	RatingRank       int                `bun:",notnull"          json:"ratingRank"`
	Trigger          enum.RatingTrigger `bun:",notnull"          json:"trigger"`
	RefundAmount     int                `bun:",notnull"          json:"refundAmount"`
	PunishedUserID   int64              `bun:",nullzero"         json:"punishedUserId"`
	PunishedUsername string             `bun:",notnull"          json:"punishedUsername"`
	ModerationLogID  *uuid.UUID         `bun:"type:uuid,nullzero" json:"moderationLogId"`
}
