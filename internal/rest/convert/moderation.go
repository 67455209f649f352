package convert

import (
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/moderation"
	restTypes "github.com/worldtrek/warden/internal/rest/types"
)

// UserRef converts a user snapshot to its REST form.
func UserRef(ref types.UserRef) restTypes.UserRef {
	return restTypes.UserRef{ID: ref.ID, Username: ref.Username}
}

// RefundSummary converts a refund summary to its REST form.
func RefundSummary(summary *types.RefundSummary) *restTypes.RefundSummary {
	if summary == nil {
		return nil
	}

	return &restTypes.RefundSummary{
		TotalRefunded:     summary.TotalRefunded,
		OpponentsAffected: summary.OpponentsAffected,
		MatchesProcessed:  summary.MatchesProcessed,
		FailedOpponents:   summary.FailedOpponents,
	}
}

// Result converts an applied action to its REST response.
func Result(result *moderation.Result) restTypes.ApplyActionResponse {
	return restTypes.ApplyActionResponse{
		Success:         result.Success,
		Action:          result.Action.String(),
		TargetUser:      UserRef(result.TargetUser),
		ModerationLogID: result.ModerationLogID.String(),
		ExpiresAt:       result.ExpiresAt,
		RefundSummary:   RefundSummary(result.RefundSummary),
		Message:         result.Message,
	}
}

// PendingReports converts reports to their REST form. Moderator notes are never included.
func PendingReports(reports []*types.Report) []restTypes.PendingReport {
	result := make([]restTypes.PendingReport, 0, len(reports))
	for _, report := range reports {
		result = append(result, restTypes.PendingReport{
			ID:          report.ID,
			ReporterID:  report.ReporterID,
			Reason:      string(report.Reason),
			Description: report.Description,
			MatchID:     report.MatchID,
			CreatedAt:   report.CreatedAt,
		})
	}
	return result
}

// LogEntries converts audit entries to their REST form.
func LogEntries(logs []*types.ModerationLog) []restTypes.LogEntry {
	result := make([]restTypes.LogEntry, 0, len(logs))
	for _, entry := range logs {
		var nameChange *restTypes.NameChange
		if entry.NameChange != nil {
			nameChange = &restTypes.NameChange{
				OldName: entry.NameChange.OldName,
				NewName: entry.NameChange.NewName,
			}
		}

		result = append(result, restTypes.LogEntry{
			ID:                entry.ID.String(),
			CreatedAt:         entry.CreatedAt,
			TargetUser:        restTypes.UserRef{ID: entry.TargetUserID, Username: entry.TargetUsername},
			Moderator:         restTypes.UserRef{ID: entry.ModeratorID, Username: entry.ModeratorUsername},
			Action:            entry.Action.String(),
			Reason:            entry.Reason,
			PublicNote:        entry.PublicNote,
			DurationSeconds:   entry.DurationSeconds,
			ExpiresAt:         entry.ExpiresAt,
			NameChange:        nameChange,
			RelatedReportIDs:  nonNil(entry.RelatedReportIDs),
			PromotedReportIDs: nonNil(entry.PromotedReportIDs),
			RefundSummary:     RefundSummary(entry.RefundSummary),
		})
	}
	return result
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
