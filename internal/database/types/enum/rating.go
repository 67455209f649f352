package enum

// RatingTrigger identifies what caused an entry in a user's rating timeline.
type RatingTrigger string

const (
	// RatingTriggerMatch is written by the match engine after a ranked match.
	RatingTriggerMatch RatingTrigger = "match"
	// RatingTriggerRefund is written when rating lost to a banned player is returned.
	RatingTriggerRefund RatingTrigger = "rating_refund"
	// RatingTriggerAdminAdjustment is written by manual staff corrections.
	RatingTriggerAdminAdjustment RatingTrigger = "admin_adjustment"
)
