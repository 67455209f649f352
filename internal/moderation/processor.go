package moderation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/worldtrek/warden/internal/database"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"github.com/worldtrek/warden/internal/setup/config"
	"github.com/worldtrek/warden/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/worldtrek/warden/internal/moderation"

// StaffResolver resolves the account behind a staff credential.
type StaffResolver interface {
	ResolveStaffIdentity(ctx context.Context, credential string) (*types.StaffIdentity, error)
}

// Enforcer delivers effects to the live-session layer. Calls must not block.
type Enforcer interface {
	PushEnforcement(userID int64, kind enum.EnforcementKind)
	InvalidateAuthCache(userID int64)
}

// Request is one staff-issued moderation action.
type Request struct {
	Credential   string
	Action       enum.ModerationAction
	TargetUserID int64
	// Reason is internal and never shown to the target.
	Reason string
	// PublicNote is shown to the target.
	PublicNote *string
	Duration   time.Duration
	ReportIDs  []int64
	SkipRefund bool
}

// Result describes what an applied action did.
type Result struct {
	Success         bool
	Action          enum.ModerationAction
	TargetUser      types.UserRef
	ModerationLogID uuid.UUID
	ExpiresAt       *time.Time
	RefundSummary   *types.RefundSummary
	Message         string
}

// Processor validates and applies moderation actions.
type Processor struct {
	db           database.Client
	staff        StaffResolver
	enforcer     Enforcer
	ledger       *Ledger
	reclassifier *Reclassifier
	refunds      *RefundEngine
	tracer       trace.Tracer
	logger       *zap.Logger

	mutationTimeout time.Duration
}

// NewProcessor wires the moderation components over the database client.
func NewProcessor(
	db database.Client, staff StaffResolver, enforcer Enforcer, cfg *config.ModerationConfig, logger *zap.Logger,
) *Processor {
	logger = logger.Named("moderation")
	tracer := otel.Tracer(tracerName)
	repo := db.Model()

	reputation := NewReputationTracker(repo.User(), logger)

	return &Processor{
		db:           db,
		staff:        staff,
		enforcer:     enforcer,
		ledger:       NewLedger(repo.Report(), reputation, logger),
		reclassifier: NewReclassifier(repo.Report(), reputation, logger),
		refunds: NewRefundEngine(repo.Match(), repo.User(), repo.Rating(), RefundOptions{
			RatingCeiling: cfg.RatingCeiling,
			Concurrency:   cfg.RefundConcurrency,
			CASAttempts:   cfg.RatingCASAttempts,
		}, tracer, logger),
		tracer: tracer,
		logger: logger,

		mutationTimeout: cfg.MutationTimeoutDuration(),
	}
}

// Ledger returns the report ledger.
func (p *Processor) Ledger() *Ledger {
	return p.ledger
}

// Authorize resolves the credential and requires staff rights.
func (p *Processor) Authorize(ctx context.Context, credential string) (*types.StaffIdentity, error) {
	moderator, err := p.staff.ResolveStaffIdentity(ctx, credential)
	if err != nil {
		if errors.Is(err, types.ErrInvalidCredential) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve staff identity: %w", err)
	}
	if !moderator.IsStaff {
		return nil, ErrNotStaff
	}

	return moderator, nil
}

// Apply runs one moderation action. Authorization and validation errors are returned before
// anything is written. Every successful call writes exactly one audit entry, after its claims.
func (p *Processor) Apply(ctx context.Context, req Request) (result *Result, err error) {
	ctx, span := p.tracer.Start(ctx, "moderation.Apply", trace.WithAttributes(
		attribute.String("action", req.Action.String()),
		attribute.Int64("target_user_id", req.TargetUserID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !req.Action.IsValid() {
		return nil, ErrUnknownAction
	}

	moderator, err := p.Authorize(ctx, req.Credential)
	if err != nil {
		return nil, err
	}

	target, err := p.db.Model().User().GetByID(ctx, req.TargetUserID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) || errors.Is(err, types.ErrInvalidUserID) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to get target user: %w", err)
	}

	req.Reason = utils.CollapseWhitespace(req.Reason)
	req.PublicNote = normalizeNote(req.PublicNote)

	if err := p.validate(ctx, moderator, target, &req); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("moderator_id", moderator.ID))

	// Past validation every claim must reach its audit entry, so the caller can no longer cancel
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.mutationTimeout)
	defer cancel()

	entry := &types.ModerationLog{
		ID:                uuid.New(),
		TargetUserID:      target.ID,
		TargetUsername:    target.Username,
		ModeratorID:       moderator.ID,
		ModeratorUsername: moderator.Username,
		Action:            req.Action,
		Reason:            req.Reason,
		PublicNote:        req.PublicNote,
	}

	mutatedUser, message, err := p.execute(ctx, moderator, target, req, entry)
	if mutatedUser {
		p.enforcer.InvalidateAuthCache(target.ID)
	}
	if err != nil {
		return nil, err
	}

	entry.CreatedAt = time.Now().UTC()
	if err := p.db.Model().ModerationLog().Append(ctx, entry); err != nil {
		p.logger.Error("Failed to write audit entry after claims succeeded",
			zap.String("moderation_log_id", entry.ID.String()),
			zap.String("action", req.Action.String()),
			zap.Int64("target_user_id", target.ID),
			zap.Int64s("related_report_ids", entry.RelatedReportIDs),
			zap.Error(err))
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}

	p.logger.Info("Applied moderation action",
		zap.String("action", req.Action.String()),
		zap.Int64("target_user_id", target.ID),
		zap.Int64("moderator_id", moderator.ID),
		zap.String("moderation_log_id", entry.ID.String()),
		zap.Int("resolved_reports", len(entry.RelatedReportIDs)),
		zap.Int("promoted_reports", len(entry.PromotedReportIDs)))

	return &Result{
		Success:         true,
		Action:          req.Action,
		TargetUser:      target.Ref(),
		ModerationLogID: entry.ID,
		ExpiresAt:       entry.ExpiresAt,
		RefundSummary:   entry.RefundSummary,
		Message:         message,
	}, nil
}

// validate checks every precondition that does not depend on the action having run.
func (p *Processor) validate(
	ctx context.Context, moderator *types.StaffIdentity, target *types.User, req *Request,
) error {
	if moderator.ID == target.ID {
		return ErrSelfTarget
	}
	if req.Action.IsPunitive() && target.IsStaff {
		return ErrStaffTarget
	}
	if req.Action.RequiresReason() && req.Reason == "" {
		return ErrReasonRequired
	}
	if req.Action == enum.ModerationActionBanTemporary {
		if req.Duration <= 0 {
			return ErrDurationRequired
		}
		if req.Duration > time.Duration(MaxBanSeconds)*time.Second {
			return ErrDurationTooLong
		}
	}

	switch req.Action {
	case enum.ModerationActionUnban:
		if !target.Banned {
			return ErrNotBanned
		}
	case enum.ModerationActionUndoForceNameChange:
		if !target.PendingNameChange {
			return ErrNoPendingNameChange
		}
	case enum.ModerationActionIgnore, enum.ModerationActionMarkResolved, enum.ModerationActionBanPermanent,
		enum.ModerationActionBanTemporary, enum.ModerationActionForceNameChange:
	}

	return p.validateReports(ctx, target, req)
}

// validateReports checks that supplied reports exist and are against the target.
// A forced rename additionally needs at least one of them to be an identity complaint.
func (p *Processor) validateReports(ctx context.Context, target *types.User, req *Request) error {
	if len(req.ReportIDs) == 0 {
		return nil
	}

	ids := slices.Clone(req.ReportIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	reports, err := p.db.Model().Report().GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to get supplied reports: %w", err)
	}
	if len(reports) != len(ids) {
		return ErrUnknownReport
	}

	hasIdentity := false
	for _, report := range reports {
		if report.ReportedUserID != target.ID {
			return ErrReportTargetMismatch
		}
		if report.Reason == enum.ReportReasonInappropriateIdentity {
			hasIdentity = true
		}
	}

	if req.Action == enum.ModerationActionForceNameChange && !hasIdentity {
		return ErrNoIdentityReport
	}

	return nil
}

// execute performs the action-specific writes and fills in the audit entry.
// It reports whether the target's user record changed.
func (p *Processor) execute(
	ctx context.Context, moderator *types.StaffIdentity, target *types.User, req Request, entry *types.ModerationLog,
) (bool, string, error) {
	switch req.Action {
	case enum.ModerationActionIgnore, enum.ModerationActionMarkResolved:
		reportAction, _ := req.Action.ReportAction()
		claimed, err := p.ledger.ResolvePending(ctx, target.ID, reportAction, moderator.ID, req.Reason, nil, entry.ID)
		if err != nil {
			return false, "", err
		}
		entry.RelatedReportIDs = claimed

		return false, fmt.Sprintf("Resolved %d pending report(s) against %s", len(claimed), target.Username), nil

	case enum.ModerationActionBanPermanent, enum.ModerationActionBanTemporary:
		return p.executeBan(ctx, moderator, target, req, entry)

	case enum.ModerationActionForceNameChange:
		return p.executeForceNameChange(ctx, moderator, target, req, entry)

	case enum.ModerationActionUnban:
		if err := p.db.Model().User().ClearBan(ctx, target.ID); err != nil {
			return false, "", fmt.Errorf("failed to unban user: %w", err)
		}

		return true, fmt.Sprintf("Unbanned %s", target.Username), nil

	case enum.ModerationActionUndoForceNameChange:
		if err := p.db.Model().User().ClearPendingNameChange(ctx, target.ID); err != nil {
			return false, "", fmt.Errorf("failed to clear pending name change: %w", err)
		}

		deleted, err := p.db.Model().NameChange().DeletePendingRequests(ctx, target.ID)
		if err != nil {
			p.logger.Error("Failed to delete pending name change requests",
				zap.Int64("target_user_id", target.ID),
				zap.Error(err))
		}
		entry.NameChange = &types.NameChangeDetail{OldName: target.Username}

		return true, fmt.Sprintf("Withdrew forced name change for %s (%d pending request(s) removed)",
			target.Username, deleted), nil
	}

	return false, "", ErrUnknownAction
}

func (p *Processor) executeBan(
	ctx context.Context, moderator *types.StaffIdentity, target *types.User, req Request, entry *types.ModerationLog,
) (bool, string, error) {
	ban := types.BanUpdate{
		Type:       enum.BanTypePermanent,
		Reason:     req.Reason,
		PublicNote: req.PublicNote,
	}

	if req.Action == enum.ModerationActionBanTemporary {
		expiresAt := time.Now().UTC().Add(req.Duration)
		seconds := int64(req.Duration / time.Second)

		ban.Type = enum.BanTypeTemporary
		ban.ExpiresAt = &expiresAt
		entry.ExpiresAt = &expiresAt
		entry.DurationSeconds = &seconds
	}

	if err := p.db.Model().User().ApplyBan(ctx, target.ID, ban); err != nil {
		return false, "", fmt.Errorf("failed to ban user: %w", err)
	}

	p.enforcer.PushEnforcement(target.ID, enum.EnforcementKindBan)

	// Only permanent removal compensates opponents
	if req.Action == enum.ModerationActionBanPermanent && !req.SkipRefund {
		summary, err := p.refunds.RefundFromPunishedUser(ctx, target.Ref(), entry.ID)
		if err != nil {
			p.logger.Error("Failed to refund rating for banned user",
				zap.Int64("target_user_id", target.ID),
				zap.Error(err))
		}
		entry.RefundSummary = summary
	}

	reportAction, _ := req.Action.ReportAction()
	p.resolveAndPromote(ctx, moderator, target, req, entry, reportAction, nil)

	message := fmt.Sprintf("Banned %s permanently", target.Username)
	if entry.ExpiresAt != nil {
		message = fmt.Sprintf("Banned %s until %s", target.Username, entry.ExpiresAt.Format(time.RFC3339))
	}
	if entry.RefundSummary != nil && entry.RefundSummary.TotalRefunded > 0 {
		message += fmt.Sprintf("; refunded %d rating to %d opponent(s)",
			entry.RefundSummary.TotalRefunded, entry.RefundSummary.OpponentsAffected)
	}

	return true, message, nil
}

func (p *Processor) executeForceNameChange(
	ctx context.Context, moderator *types.StaffIdentity, target *types.User, req Request, entry *types.ModerationLog,
) (bool, string, error) {
	err := p.db.Model().User().SetPendingNameChange(ctx, target.ID, types.NameChangeUpdate{
		Reason:     req.Reason,
		PublicNote: req.PublicNote,
	})
	if err != nil {
		return false, "", fmt.Errorf("failed to set pending name change: %w", err)
	}

	p.enforcer.PushEnforcement(target.ID, enum.EnforcementKindNameChange)

	identity := enum.ReportReasonInappropriateIdentity
	p.resolveAndPromote(ctx, moderator, target, req, entry, enum.ReportActionForceNameChange, &identity)

	// The new name stays empty until the user submits one
	entry.NameChange = &types.NameChangeDetail{OldName: target.Username}

	return true, fmt.Sprintf("Required %s to choose a new username", target.Username), nil
}

// resolveAndPromote settles pending reports and retroactively promotes ignored ones after a
// punitive action. The punishment is already written, so failures are logged and the audit entry
// records whatever was claimed.
func (p *Processor) resolveAndPromote(
	ctx context.Context,
	moderator *types.StaffIdentity,
	target *types.User,
	req Request,
	entry *types.ModerationLog,
	reportAction enum.ReportAction,
	reasonFilter *enum.ReportReason,
) {
	claimed, err := p.ledger.ResolvePending(ctx, target.ID, reportAction, moderator.ID, req.Reason, reasonFilter, entry.ID)
	if err != nil {
		p.logger.Error("Failed to resolve pending reports",
			zap.Int64("target_user_id", target.ID),
			zap.Error(err))
	}
	entry.RelatedReportIDs = claimed

	promotion, err := p.reclassifier.PromotePreviouslyDismissed(
		ctx, target.ID, reportAction, moderator.ID, req.Reason, reasonFilter, entry.ID,
	)
	if err != nil {
		p.logger.Error("Failed to promote dismissed reports",
			zap.Int64("target_user_id", target.ID),
			zap.Error(err))
		return
	}
	entry.PromotedReportIDs = promotion.ReportIDs
}

// normalizeNote tidies a public note and drops it when blank.
func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}

	tidy := utils.TidyMultiline(*note)
	if tidy == "" {
		return nil
	}

	return &tidy
}
