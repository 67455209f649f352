package commands

import (
	"context"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ReconcileCommands returns the audit reconciliation commands.
func ReconcileCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "reconcile",
			Usage: "List claims whose audit entry was never written",
			Description: `Finds reports, refunded matches, and rating adjustments that reference a
moderation log id with no matching audit entry. These are left behind when a process
stops between claiming work and appending its audit entry. Nothing is modified.

Exits with an error when orphans are found so it can gate deploy scripts.`,
			Action: handleReconcile(deps),
		},
	}
}

func handleReconcile(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		orphans, err := deps.DB.Service().Reconcile().FindOrphans(ctx)
		if err != nil {
			return err
		}

		if orphans.IsEmpty() {
			deps.Logger.Info("Every claim has an audit entry")
			return nil
		}

		deps.Logger.Warn("Claims without an audit entry",
			zap.Int64s("report_ids", orphans.ReportIDs),
			zap.Int64s("match_ids", orphans.MatchIDs),
			zap.Int64s("rating_adjustment_ids", orphans.RatingAdjustmentIDs))

		return ErrOrphansFound
	}
}
