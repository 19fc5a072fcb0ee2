package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ngoinfo/copilot/internal/auth"
	"github.com/ngoinfo/copilot/internal/config"
	exportdomain "github.com/ngoinfo/copilot/internal/export/domain"
	"github.com/ngoinfo/copilot/internal/observability"
	obsmiddleware "github.com/ngoinfo/copilot/internal/observability/logger"
	obsmetrics "github.com/ngoinfo/copilot/internal/observability/metrics"
	obstracing "github.com/ngoinfo/copilot/internal/observability/tracing"
	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
	usagedomain "github.com/ngoinfo/copilot/internal/usage/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// NewEngine builds the gin engine with the observability and error handling
// middleware chain plus the unauthenticated health and metrics endpoints.
func NewEngine(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(obsCfg, m)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	proposalSvc proposaldomain.Service
	profileSvc  profiledomain.Service
	usageSvc    usagedomain.Service
	exportSvc   exportdomain.Service
	validator   *auth.SessionValidator
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	ProposalSvc proposaldomain.Service
	ProfileSvc  profiledomain.Service
	UsageSvc    usagedomain.Service
	ExportSvc   exportdomain.Service
	Validator   *auth.SessionValidator
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		proposalSvc: p.ProposalSvc,
		profileSvc:  p.ProfileSvc,
		usageSvc:    p.UsageSvc,
		exportSvc:   p.ExportSvc,
		validator:   p.Validator,
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", auth.Middleware(s.validator, AbortWithError))

	proposals := api.Group("/proposals")
	{
		proposals.POST("/generate", s.GenerateProposal)
		proposals.GET("", s.ListProposals)
		proposals.GET("/:id", s.GetProposal)
		proposals.PUT("/:id", s.UpdateProposal)
		proposals.POST("/:id/rate", s.RateProposal)
		proposals.DELETE("/:id/archive", s.ArchiveProposal)
		proposals.GET("/:id/export/:format", s.ExportProposal)
	}

	api.GET("/profile", s.GetProfile)
	api.POST("/profile", s.UpsertProfile)

	api.GET("/usage/summary", s.GetUsageSummary)
}

func (s *Server) userID(c *gin.Context) string {
	return c.GetString(auth.ContextUserIDKey)
}
