package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/admins"
)

// Creates an admin console account.
//
//	go run ./cmd/tools/seedadmin -email ops@example.org -name "Ops" -password "..."
func main() {
	_ = godotenv.Load()

	email := flag.String("email", "", "admin email")
	name := flag.String("name", "", "admin display name")
	password := flag.String("password", "", "admin password (min 8 chars)")
	flag.Parse()

	if *email == "" || *name == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	adm, err := admins.NewService(db).Create(context.Background(), *email, *name, *password)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	log.Printf("✓ admin %s created (%s)", adm.Email, adm.ID)
}
