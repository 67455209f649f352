package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Match is a finished game produced by the match engine.
// The moderation engine only ever flips the refund claim flag.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID               int64      `bun:",pk,autoincrement"      json:"id"`
	Competitive      bool       `bun:",notnull,default:false" json:"competitive"`
	RatingRefunded   bool       `bun:",notnull,default:false" json:"ratingRefunded"`
	RatingRefundedAt *time.Time `bun:",nullzero"              json:"ratingRefundedAt"`
	RefundLogID      *uuid.UUID `bun:"type:uuid,nullzero"     json:"refundLogId"`
	EndedAt          time.Time  `bun:",notnull"               json:"endedAt"`

	Players []*MatchPlayer `bun:"-" json:"players"`
}

// MatchPlayer is one participant's rating movement in a match.
// UserID is zero for guests.
type MatchPlayer struct {
	bun.BaseModel `bun:"table:match_players,alias:mp"`

	ID           int64  `bun:",pk,autoincrement" json:"id"`
	MatchID      int64  `bun:",notnull"          json:"matchId"`
	UserID       int64  `bun:",nullzero"         json:"userId"`
	Username     string `bun:",notnull"          json:"username"`
	RatingBefore int    `bun:",notnull"          json:"ratingBefore"`
	RatingAfter  int    `bun:",notnull"          json:"ratingAfter"`
	RatingChange int    `bun:",notnull"          json:"ratingChange"`
}

// IsGuest reports whether the participant played without an account.
func (p *MatchPlayer) IsGuest() bool {
	return p.UserID <= 0
}

// MatchFilter narrows a participant match lookup.
type MatchFilter struct {
	CompetitiveOnly bool
	UnrefundedOnly  bool
}
