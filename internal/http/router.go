package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/config"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/handlers"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/admins"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/applications"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/checkout"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/email"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/storage"
)

// NewRouter wires middleware, handlers, and routes.
func NewRouter(
	logger *slog.Logger,
	db *gorm.DB,
	cfg config.Config,
	gateway payments.Gateway,
	sender email.Sender,
	store storage.Storage,
) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	sessCfg := middleware.SessionCfg{
		DB:         db,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
		TTL:        cfg.Session.TTL,
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.ErrorHandler(logger),
		middleware.SessionMiddleware(sessCfg),
	)

	cancelSvc := tickets.NewCancelService(db, gateway)
	appSvc := applications.NewService(db)
	reviewSvc := applications.NewReviewService(db)
	checkoutSvc := checkout.NewService(db, gateway)
	adminSvc := admins.NewService(db)

	authH := handlers.NewAuthHandler(sessCfg, cfg.AuthSharedSecret, adminSvc)
	ordersH := handlers.NewOrdersHandler(db, cancelSvc, sender, logger)
	regsH := handlers.NewRegistrationsHandler(db, cancelSvc, sender, logger)
	appsH := handlers.NewApplicationsHandler(db, appSvc, store, sender, logger)
	checkoutH := handlers.NewCheckoutHandler(checkoutSvc)
	dashH := handlers.NewDashboardHandler(db)
	adminOrdersH := handlers.NewAdminOrdersHandler(db, cancelSvc, logger)
	adminAppsH := handlers.NewAdminApplicationsHandler(db, reviewSvc)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Sessions.
	auth := r.Group("/auth")
	{
		auth.POST("/callback", authH.IdentityCallback)
		auth.POST("/admin/login", authH.AdminLogin)
		auth.POST("/logout", authH.Logout)
	}

	// Signed-in attendee surface.
	api := r.Group("/api", middleware.RequireAuth())
	{
		api.GET("/me", dashH.Me)

		api.POST("/orders", checkoutH.Create)
		api.GET("/orders/:id", ordersH.Detail)
		api.GET("/orders/:id/cancellation", ordersH.CancellationInfo)
		api.POST("/orders/:id/cancel", ordersH.Cancel)

		api.GET("/registrations/:id", regsH.Detail)
		api.GET("/registrations/:id/cancellation", regsH.CancellationInfo)
		api.POST("/registrations/:id/cancel", regsH.Cancel)

		api.POST("/proposals", appsH.SubmitProposal)
		api.PUT("/proposals/:id", appsH.UpdateProposal)
		api.DELETE("/proposals/:id", appsH.DeleteProposal)

		api.POST("/scholarships", appsH.SubmitFunding)
		api.PUT("/scholarships/:id", appsH.UpdateFunding)
		api.DELETE("/scholarships/:id", appsH.DeleteFunding)
	}

	// Admin console.
	admin := r.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/orders", adminOrdersH.List)
		admin.GET("/orders/:id", adminOrdersH.Detail)
		admin.POST("/orders/:id/cancel", adminOrdersH.Cancel)

		admin.GET("/proposals", adminAppsH.ListProposals)
		admin.POST("/proposals/:id/review", adminAppsH.ReviewProposal)

		admin.GET("/scholarships", adminAppsH.ListFunding)
		admin.POST("/scholarships/:id/review", adminAppsH.ReviewFunding)
	}

	return r
}
