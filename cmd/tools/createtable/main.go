package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

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

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS profiles (
	  id CHAR(36) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  organisation VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_profiles_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS orders (
	  id CHAR(36) NOT NULL,
	  purchaser_email VARCHAR(255) NOT NULL,
	  purchaser_name VARCHAR(255) NOT NULL,
	  total_cents INT NOT NULL,
	  discount_cents INT NOT NULL DEFAULT 0,
	  currency CHAR(3) NOT NULL DEFAULT 'AUD',
	  payment_method VARCHAR(16) NOT NULL,
	  payment_status VARCHAR(16) NOT NULL,
	  stripe_payment_id VARCHAR(128) NULL,
	  invoice_number VARCHAR(32) NULL,
	  invoice_due_date DATETIME(3) NULL,
	  organisation VARCHAR(255) NULL,
	  abn VARCHAR(32) NULL,
	  purchase_order VARCHAR(64) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_orders_purchaser_email (purchaser_email),
	  KEY ix_orders_payment_status (payment_status),
	  UNIQUE KEY ux_orders_invoice_number (invoice_number)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS registrations (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NULL,
	  profile_id CHAR(36) NULL,
	  name VARCHAR(255) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  ticket_type VARCHAR(64) NOT NULL,
	  ticket_price_cents INT NOT NULL,
	  amount_paid_cents INT NOT NULL DEFAULT 0,
	  status VARCHAR(16) NOT NULL,
	  stripe_payment_id VARCHAR(128) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_registrations_order_id (order_id),
	  KEY ix_registrations_profile_id (profile_id),
	  KEY ix_registrations_email (email),
	  KEY ix_registrations_status (status),
	  CONSTRAINT fk_registrations_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE SET NULL,
	  CONSTRAINT fk_registrations_profile FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS order_events (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  actor_email VARCHAR(255) NOT NULL,
	  action VARCHAR(32) NOT NULL,
	  from_status VARCHAR(16) NOT NULL,
	  to_status VARCHAR(16) NOT NULL,
	  note VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_order_events_order_id (order_id),
	  CONSTRAINT fk_order_events_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS refunds (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NULL,
	  registration_id CHAR(36) NULL,
	  provider VARCHAR(64) NOT NULL,
	  provider_ref VARCHAR(128) NULL,
	  payment_ref VARCHAR(128) NOT NULL,
	  status VARCHAR(16) NOT NULL,
	  amount_cents INT NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'AUD',
	  idempotency_key VARCHAR(64) NOT NULL,
	  error_message VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_refunds_order_id (order_id),
	  KEY ix_refunds_registration_id (registration_id),
	  UNIQUE KEY ux_refunds_idem_key (idempotency_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS speaker_proposals (
	  id CHAR(36) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  profile_id CHAR(36) NULL,
	  title VARCHAR(255) NOT NULL,
	  abstract TEXT NOT NULL,
	  bio TEXT NOT NULL,
	  attachment_key VARCHAR(128) NULL,
	  status VARCHAR(16) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_speaker_proposals_email (email),
	  KEY ix_speaker_proposals_status (status),
	  CONSTRAINT fk_speaker_proposals_profile FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS funding_applications (
	  id CHAR(36) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  profile_id CHAR(36) NULL,
	  affiliation VARCHAR(255) NOT NULL,
	  motivation TEXT NOT NULL,
	  amount_requested_cents INT NOT NULL DEFAULT 0,
	  answers_json JSON NULL,
	  status VARCHAR(16) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_funding_applications_email (email),
	  KEY ix_funding_applications_status (status),
	  CONSTRAINT fk_funding_applications_profile FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS sessions (
	  id CHAR(36) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  role VARCHAR(16) NOT NULL DEFAULT 'attendee',
	  token_hash BINARY(32) NOT NULL,
	  expires_at DATETIME(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  last_seen_at DATETIME(3) NOT NULL,
	  PRIMARY KEY (id),
	  KEY ix_sessions_email (email),
	  KEY ix_sessions_expires_at (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS admins (
	  id CHAR(36) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  password_hash VARCHAR(128) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_admins_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := sqlDB.Exec(sql); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("✓ tables created successfully")
}
