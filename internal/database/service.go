package database

import (
	"github.com/worldtrek/warden/internal/database/service"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	staff     *service.StaffService
	log       *service.LogService
	reconcile *service.ReconcileService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, logger *zap.Logger) *Service {
	return &Service{
		staff:     service.NewStaff(repository.User(), logger),
		log:       service.NewLog(repository.ModerationLog(), logger),
		reconcile: service.NewReconcile(repository.Reconcile(), logger),
	}
}

// Staff returns the staff identity service.
func (s *Service) Staff() *service.StaffService {
	return s.staff
}

// Log returns the moderation log service.
func (s *Service) Log() *service.LogService {
	return s.log
}

// Reconcile returns the reconciliation service.
func (s *Service) Reconcile() *service.ReconcileService {
	return s.reconcile
}
