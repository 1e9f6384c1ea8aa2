package main

import (
	"context"
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/config"
	apphttp "github.com/good-ancestors/aisafetyforum-sub001/internal/http"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/mailer"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/email"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/storage"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	gateway := payments.NewStripe(cfg.Stripe.APIKey, cfg.Stripe.BaseURL)

	sender := email.NewMailerAdapter(
		mailer.NewSMTPMailer(cfg.SMTP),
		cfg.SMTP.FromAddr,
		cfg.SMTP.FromName,
	)

	st, err := storage.FromEnv(context.Background())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	r := apphttp.NewRouter(logger, db, cfg, gateway, sender, st.Storage)
	_ = r.Run(cfg.Addr)
}
