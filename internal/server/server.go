package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/basel-ax/roomdream/internal/config"
	"github.com/basel-ax/roomdream/internal/handler"
	"github.com/basel-ax/roomdream/internal/middleware"
)

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *handler.Handler, auth config.AuthConfig, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recover(log), middleware.Logging(log))

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api", middleware.Authenticate([]byte(auth.JWTSecret), auth.Issuer))
	{
		api.GET("/uploads", h.CreateUpload)
		api.POST("/predictions", h.CreatePrediction)
		api.POST("/predictions/batch", h.CreatePredictions)
		api.GET("/predictions", h.ListPredictions)
	}

	return router
}

func New(cfg *config.Config, router http.Handler, log *zap.Logger) *Server {
	server := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Addr(),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully", zap.String("address", server.httpServer.Addr))

	return server
}

func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
