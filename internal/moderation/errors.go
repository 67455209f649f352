package moderation

import (
	"errors"
	"fmt"
)

// MaxBanSeconds is the longest temporary ban accepted, 100 years.
const MaxBanSeconds int64 = 100 * 365 * 24 * 60 * 60

// Error classes. Every error returned before a mutation wraps exactly one of these.
var (
	ErrAuthorization = errors.New("not authorized")
	ErrValidation    = errors.New("invalid request")
	ErrNotFound      = errors.New("not found")
)

var (
	ErrUnauthorized = fmt.Errorf("%w: invalid staff credential", ErrAuthorization)
	ErrNotStaff     = fmt.Errorf("%w: caller is not staff", ErrAuthorization)
	ErrSelfTarget   = fmt.Errorf("%w: moderators cannot act on their own account", ErrAuthorization)
	ErrStaffTarget  = fmt.Errorf("%w: punitive actions cannot target staff", ErrAuthorization)

	ErrUnknownAction        = fmt.Errorf("%w: unknown action", ErrValidation)
	ErrReasonRequired       = fmt.Errorf("%w: reason is required", ErrValidation)
	ErrDurationRequired     = fmt.Errorf("%w: temporary bans need a positive duration", ErrValidation)
	ErrDurationTooLong      = fmt.Errorf("%w: temporary bans cannot exceed %d seconds", ErrValidation, MaxBanSeconds)
	ErrUnknownReport        = fmt.Errorf("%w: unknown report", ErrValidation)
	ErrReportTargetMismatch = fmt.Errorf("%w: report is not against the target", ErrValidation)
	ErrNoIdentityReport     = fmt.Errorf("%w: no supplied report is an identity complaint", ErrValidation)
	ErrNotBanned            = fmt.Errorf("%w: target is not banned", ErrValidation)
	ErrNoPendingNameChange  = fmt.Errorf("%w: target has no pending name change", ErrValidation)

	ErrTargetNotFound = fmt.Errorf("%w: target user", ErrNotFound)

	// ErrRatingContention is returned when an opponent's rating kept changing under every refund attempt.
	ErrRatingContention = errors.New("rating changed concurrently on every attempt")
)
