package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
	"github.com/talentcopilot/backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "talentcopilot", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring constraints for postgres tables...")
	// One pending confirmation per session. The gate also checks before
	// insert; this index is what holds under concurrent writers.
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS ux_confirmation_session_pending
		ON "confirmation" ("session_id")
		WHERE status = 'pending'
	`).Error; err != nil {
		return fmt.Errorf("failed to add ux_confirmation_session_pending: %w", err)
	}
	return nil
}

// AutoMigrate migrates every table. Kept separate from PostgresService so
// tests can run it against other dialects.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Tenant{},
		&types.User{},
		&types.Session{},
		&types.Message{},
		&types.SessionSummary{},
		&types.Confirmation{},
		&types.Candidate{},
		&types.Repository{},
		&types.Job{},
	)
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
