package handlers

import (
	"fridge_monitor/internal/logger"
	"fridge_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "fridge_monitor/internal/handlers/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	origins  []string
}

// Option configures a Handler.
type Option func(*Handler)

// WithAllowedOrigins enables CORS for the given browser origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) { h.origins = append(h.origins, origins...) }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestMetrics)
	if len(h.origins) > 0 {
		router.Use(h.cors)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", h.health)

	h.registerRecordRoutes(router)

	// Live feed (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerRecordRoutes(r *gin.Engine) {
	r.GET("/fridges", h.listFridges)
	r.POST("/fridges", h.addFridge)
	r.GET("/settings", h.listSettings)
	r.GET("/analytics", h.getAnalytics)
}
