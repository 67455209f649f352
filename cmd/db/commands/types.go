package commands

import (
	"errors"

	"github.com/uptrace/bun/migrate"
	"github.com/worldtrek/warden/internal/database"
	"go.uber.org/zap"
)

var (
	ErrNameRequired   = errors.New("NAME argument required")
	ErrUserIDRequired = errors.New("USER_ID argument required")
	ErrOrphansFound   = errors.New("claims without an audit entry were found")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Logger   *zap.Logger
}
