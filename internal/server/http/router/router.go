package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/GS-Pro2025/movewise/internal/config"
	"github.com/GS-Pro2025/movewise/internal/server/http/handlers"
	"github.com/GS-Pro2025/movewise/internal/server/http/middleware"
)

// multipartOverhead is added to the image limit for form boundaries and fields.
const multipartOverhead = 1 << 20

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.DispatchFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	bodyLimit := cfg.MaxImageBytes + multipartOverhead
	engine.MaxMultipartMemory = bodyLimit

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	engine.Use(middleware.LimitBody(bodyLimit))
	engine.Use(middleware.DecompressRequest(bodyLimit))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	sessionHandler := handlers.NewSessionHandler(facade)
	flowHandler := handlers.NewFlowHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade, cfg.UploadDir)

	api := engine.Group("/api")
	api.GET("/health", sessionHandler.Health)
	api.POST("/session", sessionHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.GET("/session", sessionHandler.Me)
	authed.DELETE("/session", sessionHandler.Logout)

	flows := authed.Group("/flows")
	flows.POST("/orders", flowHandler.Open)
	flows.GET("/:id", flowHandler.Get)
	flows.DELETE("/:id", flowHandler.Close)
	flows.PUT("/:id/draft", flowHandler.UpdateDraft)
	flows.POST("/:id/dispatch-ticket", flowHandler.AttachTicket)
	flows.POST("/:id/location", flowHandler.SelectLocation)
	flows.POST("/:id/submit", flowHandler.Submit)
	flows.GET("/:id/operators", flowHandler.Operators)
	flows.GET("/:id/freelancers/:code", flowHandler.FindFreelancer)
	flows.POST("/:id/freelancers", flowHandler.CreateFreelancer)
	flows.POST("/:id/selection", flowHandler.Toggle)
	flows.POST("/:id/create-mode", flowHandler.CreateMode)
	flows.POST("/:id/assign", flowHandler.Assign)
	flows.POST("/:id/cancel", flowHandler.Close)
	flows.PATCH("/:id/edit", flowHandler.SaveEdit)

	orders := authed.Group("/orders")
	orders.POST("/:key/edit", flowHandler.OpenEdit)
	orders.POST("/:key/complete", orderHandler.Complete)
	orders.DELETE("/:key", orderHandler.Delete)
	orders.GET("/:key/assignments", orderHandler.Assignments)

	authed.DELETE("/assignments/:id", orderHandler.DeleteAssignment)

	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Encoding", "Authorization"},
		ExposeHeaders:    []string{"Authorization", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
