package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/dbretry"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// UserModel handles database operations for user accounts.
type UserModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewUser creates a UserModel.
func NewUser(db *bun.DB, logger *zap.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger.Named("db_user"),
	}
}

// GetByID retrieves a user by their ID.
// Returns types.ErrUserNotFound if no account exists.
func (m *UserModel) GetByID(ctx context.Context, userID int64) (*types.User, error) {
	if userID <= 0 {
		return nil, types.ErrInvalidUserID
	}

	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		var user types.User
		err := m.db.NewSelect().
			Model(&user).
			Where("id = ?", userID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		return &user, nil
	})
}

// GetBySecretHash retrieves the account whose secret hashes to the given value.
func (m *UserModel) GetBySecretHash(ctx context.Context, secretHash string) (*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		var user types.User
		err := m.db.NewSelect().
			Model(&user).
			Where("secret_hash = ?", secretHash).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to get user by secret: %w", err)
		}

		return &user, nil
	})
}

// CreateUsers inserts user accounts. Used by account provisioning and fixtures.
func (m *UserModel) CreateUsers(ctx context.Context, users []*types.User) error {
	if len(users) == 0 {
		return nil
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(&users).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}

		return nil
	})
}

// ApplyBan writes the absolute ban state onto a user.
// Repeated bans overwrite the previous values.
func (m *UserModel) ApplyBan(ctx context.Context, userID int64, ban types.BanUpdate) error {
	return m.updateUser(ctx, userID, "apply ban", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("banned = ?", true).
			Set("ban_type = ?", ban.Type).
			Set("ban_expires_at = ?", ban.ExpiresAt).
			Set("ban_reason = ?", ban.Reason).
			Set("ban_public_note = ?", ban.PublicNote)
	})
}

// ClearBan lifts a ban. The internal ban reason is kept for history.
func (m *UserModel) ClearBan(ctx context.Context, userID int64) error {
	return m.updateUser(ctx, userID, "clear ban", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("banned = ?", false).
			Set("ban_type = ?", enum.BanTypeNone).
			Set("ban_expires_at = NULL").
			Set("ban_public_note = NULL")
	})
}

// SetPendingNameChange flags the user for a forced rename.
func (m *UserModel) SetPendingNameChange(ctx context.Context, userID int64, change types.NameChangeUpdate) error {
	return m.updateUser(ctx, userID, "set pending name change", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("pending_name_change = ?", true).
			Set("pending_name_change_reason = ?", change.Reason).
			Set("pending_name_change_public_note = ?", change.PublicNote)
	})
}

// ClearPendingNameChange withdraws a forced rename along with both of its reason fields.
func (m *UserModel) ClearPendingNameChange(ctx context.Context, userID int64) error {
	return m.updateUser(ctx, userID, "clear pending name change", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("pending_name_change = ?", false).
			Set("pending_name_change_reason = ?", "").
			Set("pending_name_change_public_note = NULL")
	})
}

// SetStaffCredential sets the staff flag and the stored credential hash.
// An empty hash clears the credential.
func (m *UserModel) SetStaffCredential(ctx context.Context, userID int64, secretHash string, isStaff bool) error {
	return m.updateUser(ctx, userID, "set staff credential", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		if secretHash == "" {
			q = q.Set("secret_hash = NULL")
		} else {
			q = q.Set("secret_hash = ?", secretHash)
		}
		return q.Set("is_staff = ?", isStaff)
	})
}

// updateUser runs a single-row update and maps a missing row to types.ErrUserNotFound.
func (m *UserModel) updateUser(
	ctx context.Context, userID int64, op string, apply func(*bun.UpdateQuery) *bun.UpdateQuery,
) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		query := m.db.NewUpdate().
			Model((*types.User)(nil)).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", userID)

		result, err := apply(query).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to %s: %w", op, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return types.ErrUserNotFound
		}

		return nil
	})
}

// CompareAndSetRating writes newRating only if the stored rating still equals expected.
// Returns false when another writer changed the rating first.
func (m *UserModel) CompareAndSetRating(ctx context.Context, userID int64, expected, newRating int) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.User)(nil)).
			Set("rating = ?", newRating).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", userID).
			Where("rating = ?", expected).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to set rating: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get rows affected: %w", err)
		}

		return affected > 0, nil
	})
}

// GetRating reads the current rating of a user.
func (m *UserModel) GetRating(ctx context.Context, userID int64) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		var rating int
		err := m.db.NewSelect().
			Model((*types.User)(nil)).
			Column("rating").
			Where("id = ?", userID).
			Scan(ctx, &rating)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, types.ErrUserNotFound
			}
			return 0, fmt.Errorf("failed to get rating: %w", err)
		}

		return rating, nil
	})
}

// RankForRating returns 1 + the number of non-banned users rated strictly higher.
func (m *UserModel) RankForRating(ctx context.Context, rating int) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.User)(nil)).
			Where("rating > ?", rating).
			Where("banned = ?", false).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count higher rated users: %w", err)
		}

		return count + 1, nil
	})
}

// IncrementReputation adds one to exactly one of the reporter's counters.
func (m *UserModel) IncrementReputation(
	ctx context.Context, reporterID int64, outcome enum.ReputationOutcome,
) error {
	var column string
	switch outcome {
	case enum.ReputationOutcomeHelpful:
		column = "reporter_helpful_reports"
	case enum.ReputationOutcomeUnhelpful:
		column = "reporter_unhelpful_reports"
	default:
		return fmt.Errorf("%w: unknown reputation outcome %q", types.ErrInvalidOutcome, outcome)
	}

	return m.updateUser(ctx, reporterID, "increment reputation", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("? = ? + 1", bun.Ident(column), bun.Ident(column))
	})
}

// ReverseReputation turns one unhelpful judgement into a helpful one in a single statement.
// The unhelpful counter never drops below zero.
func (m *UserModel) ReverseReputation(ctx context.Context, reporterID int64) error {
	return m.updateUser(ctx, reporterID, "reverse reputation", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("reporter_unhelpful_reports = CASE WHEN reporter_unhelpful_reports > 0 " +
				"THEN reporter_unhelpful_reports - 1 ELSE 0 END").
			Set("reporter_helpful_reports = reporter_helpful_reports + 1")
	})
}

// GetExpiredTemporaryBans returns temporarily banned users whose ban ended at or before now.
func (m *UserModel) GetExpiredTemporaryBans(ctx context.Context, now time.Time, limit int) ([]*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.User, error) {
		var users []*types.User
		err := m.db.NewSelect().
			Model(&users).
			Where("banned = ?", true).
			Where("ban_type = ?", enum.BanTypeTemporary).
			Where("ban_expires_at <= ?", now).
			Order("ban_expires_at ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get expired bans: %w", err)
		}

		return users, nil
	})
}

// ClaimBanExpiry lifts a temporary ban only if it is still the same expired temporary ban.
// Returns false when the ban was already lifted or replaced.
func (m *UserModel) ClaimBanExpiry(ctx context.Context, userID int64, expiresAt time.Time) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.User)(nil)).
			Set("banned = ?", false).
			Set("ban_type = ?", enum.BanTypeNone).
			Set("ban_expires_at = NULL").
			Set("ban_public_note = NULL").
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", userID).
			Where("banned = ?", true).
			Where("ban_type = ?", enum.BanTypeTemporary).
			Where("ban_expires_at = ?", expiresAt).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to lift expired ban: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get rows affected: %w", err)
		}

		return affected > 0, nil
	})
}
