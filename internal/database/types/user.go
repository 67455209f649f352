package types

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/types/enum"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidUserID     = errors.New("invalid user ID")
	ErrInvalidCredential = errors.New("invalid credential")
)

// ReporterStats counts how often a user's reports were judged helpful or unhelpful.
type ReporterStats struct {
	HelpfulReports   int64 `bun:",notnull,default:0" json:"helpfulReports"`
	UnhelpfulReports int64 `bun:",notnull,default:0" json:"unhelpfulReports"`
}

// User is a player account. The moderation engine owns the ban and name-change fields.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                          int64         `bun:",pk"                     json:"id"`
	Username                    string        `bun:",notnull"                json:"username"`
	SecretHash                  string        `bun:",nullzero,unique"        json:"-"`
	IsStaff                     bool          `bun:",notnull,default:false"  json:"isStaff"`
	Rating                      int           `bun:",notnull,default:0"      json:"rating"`
	Banned                      bool          `bun:",notnull,default:false"  json:"banned"`
	BanType                     enum.BanType  `bun:",notnull,default:'none'" json:"banType"`
	BanExpiresAt                *time.Time    `bun:",nullzero"               json:"banExpiresAt"`
	BanReason                   string        `bun:",notnull"                json:"-"` // Internal only
	BanPublicNote               *string       `bun:",nullzero"               json:"banPublicNote"`
	PendingNameChange           bool          `bun:",notnull,default:false"  json:"pendingNameChange"`
	PendingNameChangeReason     string        `bun:",notnull"                json:"-"` // Internal only
	PendingNameChangePublicNote *string       `bun:",nullzero"               json:"pendingNameChangePublicNote"`
	ReporterStats               ReporterStats `bun:"embed:reporter_"         json:"reporterStats"`
	CreatedAt                   time.Time     `bun:",notnull"                json:"createdAt"`
	UpdatedAt                   time.Time     `bun:",notnull"                json:"updatedAt"`
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

// BeforeAppendModel fills account defaults on insert.
func (u *User) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}

	now := time.Now().UTC()
	if u.BanType == "" {
		u.BanType = enum.BanTypeNone
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return nil
}

// IsGuest reports whether the user has no persisted account.
func (u *User) IsGuest() bool {
	return u.ID <= 0
}

// IsTemporarilyBanned reports whether the account carries an unexpired temporary ban.
func (u *User) IsTemporarilyBanned(now time.Time) bool {
	return u.Banned && u.BanType == enum.BanTypeTemporary &&
		u.BanExpiresAt != nil && u.BanExpiresAt.After(now)
}

// UserRef is a point-in-time snapshot of a user's identity.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Ref returns the identity snapshot of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// StaffIdentity is the resolved identity behind a credential.
type StaffIdentity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"isStaff"`
}

// Ref returns the identity snapshot recorded in audit entries.
func (s *StaffIdentity) Ref() UserRef {
	return UserRef{ID: s.ID, Username: s.Username}
}

// BanUpdate is the absolute set of ban fields written when a ban is applied.
type BanUpdate struct {
	Type       enum.BanType
	ExpiresAt  *time.Time
	Reason     string
	PublicNote *string
}

// NameChangeUpdate is the set of fields written when a forced rename is applied.
type NameChangeUpdate struct {
	Reason     string
	PublicNote *string
}
