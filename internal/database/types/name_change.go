package types

import (
	"time"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/types/enum"
)

// NameChangeRequest is a rename submitted by a user after a forced name change.
type NameChangeRequest struct {
	bun.BaseModel `bun:"table:name_change_requests,alias:ncr"`

	ID            int64                        `bun:",pk,autoincrement" json:"id"`
	UserID        int64                        `bun:",notnull"          json:"userId"`
	RequestedName string                       `bun:",notnull"          json:"requestedName"`
	Status        enum.NameChangeRequestStatus `bun:",notnull"          json:"status"`
	CreatedAt     time.Time                    `bun:",notnull"          json:"createdAt"`
}
