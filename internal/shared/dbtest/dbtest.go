// Package dbtest spins up an in-memory database with the full schema for
// service tests.
package dbtest

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/admins"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/applications"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
)

// New opens an isolated in-memory database and migrates every table.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// A single connection keeps the in-memory database alive and serializes
	// concurrent transactions.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&profiles.Profile{},
		&tickets.Order{},
		&tickets.Registration{},
		&tickets.OrderEvent{},
		&payments.Refund{},
		&applications.SpeakerProposal{},
		&applications.FundingApplication{},
		&admins.Admin{},
		&middleware.Session{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
