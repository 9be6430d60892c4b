package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/formhive/formhive/internal/config"
	"github.com/formhive/formhive/internal/services"
	"github.com/formhive/formhive/internal/store"
)

type Server struct {
	config              *config.Config
	router              *gin.Engine
	httpServer          *http.Server
	store               *store.Store
	formService         *services.FormService
	submissionService   *services.SubmissionService
	analyticsService    *services.AnalyticsService
	notificationService *services.NotificationService
	emailService        *services.EmailService
}

func NewServer(cfg *config.Config) (*Server, error) {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	formService := services.NewFormService(st)

	server := &Server{
		config:              cfg,
		router:              router,
		store:               st,
		formService:         formService,
		submissionService:   services.NewSubmissionService(st),
		analyticsService:    services.NewAnalyticsService(st, formService),
		notificationService: services.NewNotificationService(cfg),
		emailService:        services.NewEmailService(cfg),
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	s.router.Use(cors.New(corsConfig))

	// Request logging
	s.router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	// Recovery middleware
	s.router.Use(gin.Recovery())
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	var limiter rateLimiter
	rl := s.config.Server.RateLimiting
	if rl.Enabled {
		limiter = newLimiter(rl)
	}

	api := s.router.Group("/api")
	if limiter != nil {
		api.Use(rateLimitMiddleware(limiter, "api", rl.RequestsPerWindow, rl.Window()))
	}
	{
		// Form management
		forms := api.Group("/forms")
		{
			forms.POST("", s.createForm)
			forms.GET("", s.listForms)
			forms.GET("/:id", s.getForm)
			forms.PUT("/:id", s.updateForm)
			forms.DELETE("/:id", s.deleteForm)
			forms.PATCH("/:id/publish", s.publishForm)
			forms.PATCH("/:id/unpublish", s.unpublishForm)
			forms.POST("/:id/duplicate", s.duplicateForm)
		}

		// Public submission ingestion, with its own tighter limit
		submissions := api.Group("/submissions")
		{
			submit := submissions.Group("")
			if limiter != nil {
				submit.Use(rateLimitMiddleware(limiter, "submit", rl.SubmissionsPerWindow, rl.Window()))
			}
			submit.POST("", s.submitForm)

			submissions.GET("/form/:formId", s.listSubmissions)
			submissions.GET("/:id", s.getSubmission)
			submissions.DELETE("/:id", s.deleteSubmission)
		}

		// Analytics
		analytics := api.Group("/analytics")
		{
			analytics.GET("/form/:formId", s.getFormAnalytics)
			analytics.GET("/form/:formId/export", s.exportSubmissions)
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.store.Close()
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
