package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Migrates pre-order registrations to the order model: the early site wrote
// standalone registration rows carrying their own stripe_payment_id and
// amount_paid_cents.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	addCol := func(sql string) {
		if err := db.Exec(sql).Error; err != nil {
			// Re-running is fine; skip columns that already exist.
			if !strings.Contains(err.Error(), "Duplicate column name") {
				log.Fatalf("Failed: %v", err)
			}
		}
	}

	addCol(`ALTER TABLE registrations ADD COLUMN order_id CHAR(36) NULL AFTER id`)
	addCol(`ALTER TABLE registrations ADD COLUMN profile_id CHAR(36) NULL AFTER order_id`)
	addCol(`ALTER TABLE registrations ADD COLUMN ticket_price_cents INT NOT NULL DEFAULT 0 AFTER ticket_type`)

	// Standalone rows never recorded a per-seat price; backfill from what
	// was actually paid so refunds have an amount to work from.
	if err := db.Exec(`UPDATE registrations SET ticket_price_cents = amount_paid_cents WHERE ticket_price_cents = 0 AND order_id IS NULL`).Error; err != nil {
		log.Fatalf("Failed: %v", err)
	}

	fmt.Println("✓ Registration order columns added successfully!")
}
