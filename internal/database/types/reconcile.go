package types

// OrphanedClaims lists records stamped with an audit id that has no audit entry.
// These are left behind when a process stops between a claim and the audit write.
type OrphanedClaims struct {
	ReportIDs           []int64 `json:"reportIds"`
	MatchIDs            []int64 `json:"matchIds"`
	RatingAdjustmentIDs []int64 `json:"ratingAdjustmentIds"`
}

// IsEmpty reports whether no orphaned claims were found.
func (o *OrphanedClaims) IsEmpty() bool {
	return len(o.ReportIDs) == 0 && len(o.MatchIDs) == 0 && len(o.RatingAdjustmentIDs) == 0
}
