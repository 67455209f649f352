package enum

import "slices"

// ModerationAction is a staff-issued moderation action. The string values are wire-stable.
type ModerationAction string

const (
	// ModerationActionIgnore dismisses every pending report against the target.
	ModerationActionIgnore ModerationAction = "ignore"
	// ModerationActionMarkResolved closes pending reports without sanctioning the target.
	ModerationActionMarkResolved ModerationAction = "mark_resolved"
	// ModerationActionBanPermanent bans the target indefinitely and refunds rating lost to them.
	ModerationActionBanPermanent ModerationAction = "ban_permanent"
	// ModerationActionBanTemporary bans the target until a fixed expiry.
	ModerationActionBanTemporary ModerationAction = "ban_temporary"
	// ModerationActionForceNameChange requires the target to pick a new username.
	ModerationActionForceNameChange ModerationAction = "force_name_change"
	// ModerationActionUnban lifts an active ban.
	ModerationActionUnban ModerationAction = "unban"
	// ModerationActionUndoForceNameChange withdraws a pending forced rename.
	ModerationActionUndoForceNameChange ModerationAction = "undo_force_name_change"
)

// ModerationActions lists every valid action in a stable order.
var ModerationActions = []ModerationAction{ //nolint:gochecknoglobals // -
	ModerationActionIgnore,
	ModerationActionMarkResolved,
	ModerationActionBanPermanent,
	ModerationActionBanTemporary,
	ModerationActionForceNameChange,
	ModerationActionUnban,
	ModerationActionUndoForceNameChange,
}

// String returns the wire value of the action.
func (a ModerationAction) String() string {
	return string(a)
}

// IsValid reports whether the action is part of the closed set.
func (a ModerationAction) IsValid() bool {
	return slices.Contains(ModerationActions, a)
}

// IsPunitive reports whether the action sanctions the target account.
// Punitive actions can never be applied to staff accounts.
func (a ModerationAction) IsPunitive() bool {
	switch a {
	case ModerationActionBanPermanent, ModerationActionBanTemporary, ModerationActionForceNameChange:
		return true
	case ModerationActionIgnore, ModerationActionMarkResolved,
		ModerationActionUnban, ModerationActionUndoForceNameChange:
		return false
	default:
		return false
	}
}

// RequiresReason reports whether a moderator must supply an internal reason.
func (a ModerationAction) RequiresReason() bool {
	switch a {
	case ModerationActionBanPermanent, ModerationActionBanTemporary,
		ModerationActionForceNameChange, ModerationActionUnban:
		return true
	case ModerationActionIgnore, ModerationActionMarkResolved, ModerationActionUndoForceNameChange:
		return false
	default:
		return false
	}
}

// EnforcementKind is the signal pushed to a player's live session.
type EnforcementKind string

const (
	// EnforcementKindBan disconnects the player and shows the ban screen.
	EnforcementKindBan EnforcementKind = "ban"
	// EnforcementKindNameChange prompts the player to choose a new username.
	EnforcementKindNameChange EnforcementKind = "name_change"
)

// ReportAction returns the report action recorded when this action claims pending reports.
// Actions that never touch reports return false.
func (a ModerationAction) ReportAction() (ReportAction, bool) {
	switch a {
	case ModerationActionIgnore:
		return ReportActionIgnored, true
	case ModerationActionMarkResolved:
		return ReportActionResolvedNoAction, true
	case ModerationActionBanPermanent:
		return ReportActionBanPermanent, true
	case ModerationActionBanTemporary:
		return ReportActionBanTemporary, true
	case ModerationActionForceNameChange:
		return ReportActionForceNameChange, true
	case ModerationActionUnban, ModerationActionUndoForceNameChange:
		return "", false
	default:
		return "", false
	}
}
