package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/app"
	iauth "github.com/tradegatehq/tradegate/internal/auth"
	"github.com/tradegatehq/tradegate/internal/cache"
	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/handlers"
	"github.com/tradegatehq/tradegate/internal/mailer"
	"github.com/tradegatehq/tradegate/internal/middleware"
	"github.com/tradegatehq/tradegate/internal/realtime"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
// The dispatcher may be nil when outbound email is disabled.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *realtime.Hub, bus *feed.Bus, dispatcher *mailer.Dispatcher) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if hub == nil {
		return nil, fmt.Errorf("realtime hub must be provided")
	}
	if bus == nil {
		return nil, fmt.Errorf("feed bus must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt)
	if err != nil {
		return nil, err
	}
	quoteHandler, err := handlers.NewQuoteHandler(db, bus)
	if err != nil {
		return nil, err
	}
	catalogHandler, err := handlers.NewCatalogHandler(db, bus)
	if err != nil {
		return nil, err
	}
	applicationHandler, err := handlers.NewApplicationHandler(db, bus)
	if err != nil {
		return nil, err
	}
	contactHandler, err := handlers.NewContactHandler(db, bus)
	if err != nil {
		return nil, err
	}
	partnershipHandler, err := handlers.NewPartnershipHandler(db, bus)
	if err != nil {
		return nil, err
	}
	productHandler, err := handlers.NewProductHandler(db, bus)
	if err != nil {
		return nil, err
	}
	notificationHandler, err := handlers.NewNotificationHandler(db, hub)
	if err != nil {
		return nil, err
	}
	realtimeHandler := handlers.NewRealtimeHandler(hub, jwt)
	emailHandler := handlers.NewEmailHandler(dispatcher)

	// Public routes. Anonymous form submissions share one rate limit bucket
	// per client IP and path.
	public := r.Group("/api")
	if cfg.RateLimit.Enabled {
		store := middleware.NewDatabaseRateStore(cache.NewDatabaseStore(db))
		public.Use(middleware.RateLimit(store, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))
	}
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)

		public.GET("/products", productHandler.List)
		public.GET("/products/:id", productHandler.Get)

		// Catalog requests may come from anonymous visitors or logged-in users.
		public.POST("/catalog-requests", middleware.OptionalAuth(jwt), catalogHandler.Create)
		public.POST("/applications", applicationHandler.Create)
		public.POST("/contacts", contactHandler.Create)
		public.POST("/partnerships", partnershipHandler.Create)

		public.POST("/email/dispatch", emailHandler.Dispatch)
	}

	// WebSocket endpoint authenticates via token query parameter or header.
	r.GET("/api/ws", realtimeHandler.Stream)

	// Authenticated routes
	authed := r.Group("/api")
	authed.Use(middleware.Auth(jwt))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.PATCH("/auth/profile", authHandler.UpdateProfile)

		authed.POST("/quotes", quoteHandler.Create)
		authed.GET("/quotes", quoteHandler.ListMine)
		authed.GET("/quotes/:id", quoteHandler.Get)

		authed.GET("/catalog-requests", catalogHandler.ListMine)

		authed.GET("/notifications", notificationHandler.List)
		authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
		authed.POST("/notifications/:id/unread", notificationHandler.MarkUnread)
		authed.DELETE("/notifications/:id", notificationHandler.Delete)
	}

	// Back-office routes
	admin := r.Group("/api/admin")
	admin.Use(middleware.Auth(jwt), middleware.RequireAdmin())
	{
		admin.GET("/quotes", quoteHandler.ListAll)
		admin.PATCH("/quotes/:id", quoteHandler.Respond)
		admin.DELETE("/quotes/:id", quoteHandler.Delete)

		admin.GET("/catalog-requests", catalogHandler.ListAll)
		admin.PATCH("/catalog-requests/:id", catalogHandler.Review)
		admin.DELETE("/catalog-requests/:id", catalogHandler.Delete)

		admin.GET("/applications", applicationHandler.ListAll)
		admin.PATCH("/applications/:id", applicationHandler.Review)
		admin.DELETE("/applications/:id", applicationHandler.Delete)

		admin.GET("/contacts", contactHandler.ListAll)
		admin.PATCH("/contacts/:id", contactHandler.Review)
		admin.DELETE("/contacts/:id", contactHandler.Delete)

		admin.GET("/partnerships", partnershipHandler.ListAll)
		admin.PATCH("/partnerships/:id", partnershipHandler.Review)
		admin.DELETE("/partnerships/:id", partnershipHandler.Delete)

		admin.POST("/products", productHandler.Create)
		admin.PATCH("/products/:id", productHandler.Update)
		admin.DELETE("/products/:id", productHandler.Delete)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
