package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/offer-engine/internal/config"
	"github.com/ignatzorin/offer-engine/internal/http/handlers"
	"github.com/ignatzorin/offer-engine/internal/http/middleware"
	"github.com/ignatzorin/offer-engine/internal/interface/http/handler"
	"github.com/ignatzorin/offer-engine/internal/metrics"
)

func SetupRouter(
	cfg *config.Config,
	tokens middleware.AccessParser,
	healthHandler *handlers.HealthHandler,
	wsHandler *handlers.WSHandler,
	offerHandler *handler.OfferHandler,
	orderHandler *handler.OrderHandler,
	listingHandler *handler.ListingHandler,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.Tracing())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	offers := protected.Group("/offers")
	{
		offers.POST("/sessions", offerHandler.OpenSession)
		offers.GET("/sessions/:id", middleware.UUIDValidator("id"), offerHandler.GetSession)
		offers.POST("/sessions/:id/counteroffer", middleware.UUIDValidator("id"), offerHandler.SubmitCounteroffer)
		offers.PUT("/sessions/:id/status", middleware.UUIDValidator("id"), offerHandler.ResolveOffer)
		offers.POST("/merge", offerHandler.MergeSessions)
	}

	protected.POST("/contracts/:id/apply", middleware.UUIDValidator("id"), offerHandler.ApplyToContract)
	protected.POST("/listings/verify", listingHandler.Verify)

	orders := protected.Group("/orders")
	{
		orders.PUT("/:id/status", middleware.UUIDValidator("id"), orderHandler.UpdateStatus)
		orders.POST("/:id/cancel", middleware.UUIDValidator("id"), orderHandler.Cancel)
	}

	protected.POST("/organizations/:id/archive", middleware.UUIDValidator("id"), orderHandler.ArchiveOrganization)

	return r
}
