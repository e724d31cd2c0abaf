package repos

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/talentcopilot/backend/internal/db"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

type testScope struct {
	TenantID  uuid.UUID
	UserID    uuid.UUID
	SessionID uuid.UUID
}

func seedScope(t *testing.T, gdb *gorm.DB) testScope {
	t.Helper()
	scope := testScope{
		TenantID:  uuid.New(),
		UserID:    uuid.New(),
		SessionID: uuid.New(),
	}
	if err := gdb.Create(&types.Tenant{ID: scope.TenantID, Name: "acme"}).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	if err := gdb.Create(&types.User{ID: scope.UserID, TenantID: scope.TenantID, Email: "recruiter@acme.test"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := gdb.Create(&types.Session{ID: scope.SessionID, TenantID: scope.TenantID, UserID: scope.UserID}).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return scope
}

func testLogger() *logger.Logger {
	return logger.NewNop()
}
