package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"upload-ai/internal/api/middleware"
	"upload-ai/internal/api/v1/dto"
	v1routes "upload-ai/internal/api/v1/routes"
	"upload-ai/internal/api/v1/services"
	"upload-ai/internal/app/audio"
	"upload-ai/internal/app/common"
)

// Config represents API server configuration
type Config struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // 0 keeps event streams open
	IdleTimeout  time.Duration
	Environment  string
	CORSOrigins  []string // empty allows any origin
}

// HealthChecker reports the availability of external dependencies.
type HealthChecker interface {
	Health() []audio.Status
}

// Dependencies are the collaborators the server routes to.
type Dependencies struct {
	RunService services.RunService
	Health     HealthChecker
	Gatherer   prometheus.Gatherer
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
}

// NewServer creates a new API server
func NewServer(config Config, deps Dependencies, logger *zap.Logger) *Server {
	logger = common.OrNop(logger)

	switch config.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: config.CORSOrigins,
		MaxAge:       time.Hour,
	}))

	router.GET("/health", healthHandler(deps.Health))

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		v1routes.RegisterRoutes(v1, &v1routes.ServiceContainer{
			RunService: deps.RunService,
		})
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "upload-ai ingestion API",
			"version": "1.0",
			"endpoints": gin.H{
				"health":  "/health",
				"metrics": "/metrics",
				"runs":    "/api/v1/runs",
			},
		})
	})

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config:     config,
		router:     router,
		httpServer: httpServer,
		logger:     logger,
	}
}

func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var statuses []audio.Status
		if checker != nil {
			statuses = checker.Health()
		}

		resp := dto.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().Unix(),
			Dependencies: lo.Map(statuses, func(s audio.Status, _ int) dto.DependencyStatus {
				return dto.DependencyStatus{
					Name:      s.Name,
					Command:   s.Command,
					Available: s.Available,
					Detail:    s.Detail,
				}
			}),
		}

		code := http.StatusOK
		if !lo.EveryBy(statuses, func(s audio.Status) bool { return s.Available }) {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}

// Start binds the listen address and serves in the background. Bind errors are returned;
// later serve errors are logged.
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("host", s.config.Host),
		zap.String("port", s.config.Port),
		zap.String("environment", s.config.Environment),
	)

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("API server started successfully",
		zap.String("address", listener.Addr().String()),
	)

	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("API server shutdown complete")
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
