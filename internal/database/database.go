package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunjson"
	"github.com/uptrace/bun/extra/bunotel"
	"github.com/uptrace/bun/migrate"
	"github.com/worldtrek/warden/internal/database/migrations"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap"
)

// sonicProvider routes bun's JSON columns (report id lists, refund summaries) through sonic.
type sonicProvider struct{}

func (sonicProvider) Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func (sonicProvider) Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

func (sonicProvider) NewEncoder(w io.Writer) bunjson.Encoder {
	return sonic.ConfigDefault.NewEncoder(w)
}

func (sonicProvider) NewDecoder(r io.Reader) bunjson.Decoder {
	return sonic.ConfigDefault.NewDecoder(r)
}

var setJSONProvider sync.Once //nolint:gochecknoglobals // -

const connectTimeout = 10 * time.Second

// Client is the storage handle shared by the processor, the REST API, and the workers.
type Client interface {
	Model() *Repository
	Service() *Service
	Close() error
	DB() *bun.DB
}

type clientImpl struct {
	db      *bun.DB
	logger  *zap.Logger
	repo    *Repository
	service *Service
}

// NewConnection opens the PostgreSQL pool and fails fast when the server is unreachable.
func NewConnection(
	ctx context.Context, config *config.PostgreSQL, logger *zap.Logger, autoMigrate bool,
) (Client, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithAddr(fmt.Sprintf("%s:%d", config.Host, config.Port)),
		pgdriver.WithUser(config.User),
		pgdriver.WithPassword(config.Password),
		pgdriver.WithDatabase(config.DBName),
		pgdriver.WithInsecure(true),
		pgdriver.WithApplicationName("warden"),
	))

	sqldb.SetMaxOpenConns(config.MaxOpenConns)
	sqldb.SetMaxIdleConns(config.MaxIdleConns)
	sqldb.SetConnMaxLifetime(time.Duration(config.MaxLifetime) * time.Minute)
	sqldb.SetConnMaxIdleTime(time.Duration(config.MaxIdleTime) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := sqldb.PingContext(pingCtx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to reach postgres at %s:%d: %w", config.Host, config.Port, err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(config.DBName)))

	return NewFromDB(ctx, db, logger, autoMigrate)
}

// NewFromDB wraps an already opened bun.DB. The dialect is whatever the caller opened it with.
func NewFromDB(ctx context.Context, db *bun.DB, logger *zap.Logger, autoMigrate bool) (Client, error) {
	setJSONProvider.Do(func() {
		bunjson.SetProvider(sonicProvider{})
	})

	db.AddQueryHook(NewHook(logger))

	if autoMigrate {
		if err := Migrate(ctx, db, logger); err != nil {
			return nil, err
		}
	}

	repo := NewRepository(db, logger)

	logger.Info("Database connection established", zap.String("dialect", db.Dialect().Name().String()))

	return &clientImpl{
		db:      db,
		logger:  logger,
		repo:    repo,
		service: NewService(repo, logger),
	}, nil
}

// NewMigrator returns a migrator over the registered schema migrations.
func NewMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, migrations.Migrations)
}

// Migrate initializes the migration tables and applies every pending migration.
func Migrate(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	migrator := NewMigrator(db)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if !group.IsZero() {
		logger.Info("Automatically ran migrations", zap.String("group", group.String()))
	}

	return nil
}

func (c *clientImpl) Close() error {
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}

	c.logger.Info("Database connection closed")

	return nil
}

func (c *clientImpl) Model() *Repository {
	return c.repo
}

func (c *clientImpl) Service() *Service {
	return c.service
}

func (c *clientImpl) DB() *bun.DB {
	return c.db
}
