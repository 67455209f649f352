package enum

// ReportReason is the category a reporter selected.
type ReportReason string

const (
	// ReportReasonInappropriateIdentity covers offensive usernames and profile identity.
	ReportReasonInappropriateIdentity ReportReason = "inappropriate_identity"
	// ReportReasonCheating covers suspected cheating in matches.
	ReportReasonCheating ReportReason = "cheating"
	// ReportReasonOther covers everything else.
	ReportReasonOther ReportReason = "other"
)

// IsValid reports whether the reason is part of the closed set.
func (r ReportReason) IsValid() bool {
	switch r {
	case ReportReasonInappropriateIdentity, ReportReasonCheating, ReportReasonOther:
		return true
	default:
		return false
	}
}

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

const (
	// ReportStatusPending is the initial state of every report.
	ReportStatusPending ReportStatus = "pending"
	// ReportStatusReviewed is reserved and never transitioned to.
	ReportStatusReviewed ReportStatus = "reviewed"
	// ReportStatusDismissed means the report was judged unhelpful.
	ReportStatusDismissed ReportStatus = "dismissed"
	// ReportStatusActionTaken means the report was judged helpful.
	ReportStatusActionTaken ReportStatus = "action_taken"
)

// IsValid reports whether the status is part of the closed set.
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewed, ReportStatusDismissed, ReportStatusActionTaken:
		return true
	default:
		return false
	}
}

// ReportAction records what was done about a report once it left pending.
type ReportAction string

const (
	ReportActionIgnored          ReportAction = "ignored"
	ReportActionResolvedNoAction ReportAction = "resolved_no_action"
	ReportActionBanPermanent     ReportAction = "ban_permanent"
	ReportActionBanTemporary     ReportAction = "ban_temporary"
	ReportActionForceNameChange  ReportAction = "force_name_change"
)

// ReputationOutcome is the effect a resolved report has on its reporter's reputation.
type ReputationOutcome string

const (
	ReputationOutcomeHelpful   ReputationOutcome = "helpful"
	ReputationOutcomeUnhelpful ReputationOutcome = "unhelpful"
)

// Status returns the report status a pending report moves to when this action is recorded.
func (a ReportAction) Status() ReportStatus {
	if a == ReportActionIgnored {
		return ReportStatusDismissed
	}
	return ReportStatusActionTaken
}

// Outcome returns the reputation effect this action has on the reporter.
func (a ReportAction) Outcome() ReputationOutcome {
	if a == ReportActionIgnored {
		return ReputationOutcomeUnhelpful
	}
	return ReputationOutcomeHelpful
}
