package database

import (
	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/models"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	user          *models.UserModel
	report        *models.ReportModel
	match         *models.MatchModel
	moderationLog *models.ModerationLogModel
	rating        *models.RatingModel
	nameChange    *models.NameChangeModel
	reconcile     *models.ReconcileModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		user:          models.NewUser(db, logger),
		report:        models.NewReport(db, logger),
		match:         models.NewMatch(db, logger),
		moderationLog: models.NewModerationLog(db, logger),
		rating:        models.NewRating(db, logger),
		nameChange:    models.NewNameChange(db, logger),
		reconcile:     models.NewReconcile(db, logger),
	}
}

// User returns the user model repository.
func (r *Repository) User() *models.UserModel {
	return r.user
}

// Report returns the report model repository.
func (r *Repository) Report() *models.ReportModel {
	return r.report
}

// Match returns the match model repository.
func (r *Repository) Match() *models.MatchModel {
	return r.match
}

// ModerationLog returns the moderation log model repository.
func (r *Repository) ModerationLog() *models.ModerationLogModel {
	return r.moderationLog
}

// Rating returns the rating timeline model repository.
func (r *Repository) Rating() *models.RatingModel {
	return r.rating
}

// NameChange returns the name change request model repository.
func (r *Repository) NameChange() *models.NameChangeModel {
	return r.nameChange
}

// Reconcile returns the reconciliation model repository.
func (r *Repository) Reconcile() *models.ReconcileModel {
	return r.reconcile
}
