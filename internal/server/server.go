package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/churnlens/internal/config"
	customerdomain "github.com/smallbiznis/churnlens/internal/customer/domain"
	dashboarddomain "github.com/smallbiznis/churnlens/internal/dashboard/domain"
	"github.com/smallbiznis/churnlens/internal/observability"
	obsmiddleware "github.com/smallbiznis/churnlens/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/churnlens/internal/observability/metrics"
	obstracing "github.com/smallbiznis/churnlens/internal/observability/tracing"
	"github.com/smallbiznis/churnlens/internal/ratelimit"
	scoringdomain "github.com/smallbiznis/churnlens/internal/scoring/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(httpMetrics.Handler()))

	return r
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown()
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
	engine       *gin.Engine
	cfg          config.Config
	customerSvc  customerdomain.Service
	dashboardSvc dashboarddomain.Service
	scoringSvc   scoringdomain.Service
	labLimiter   *ratelimit.Limiter
	log          *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	CustomerSvc  customerdomain.Service
	DashboardSvc dashboarddomain.Service
	ScoringSvc   scoringdomain.Service
	LabLimiter   *ratelimit.Limiter `optional:"true"`
	Log          *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		customerSvc:  p.CustomerSvc,
		dashboardSvc: p.DashboardSvc,
		scoringSvc:   p.ScoringSvc,
		labLimiter:   p.LabLimiter,
		log:          p.Log.Named("http.server"),
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Customers --------
	api.GET("/customer/:id", s.LookupCustomer)
	api.GET("/customers", s.ListCustomers)
	api.GET("/customers/:id", s.GetCustomerByID)

	// -------- Dashboard --------
	api.GET("/dashboard", s.GetDashboard)
	api.GET("/dashboard/export.pdf", s.ExportDashboard)

	// -------- Scoring --------
	api.POST("/score", s.Score)
	api.POST("/simulate", s.SimulateDecision)
	api.POST("/simulate-retention", s.SimulateRetention)

	// -------- Lab --------
	api.POST("/predict-churn-lab", s.labLimiter.Middleware("predict-churn-lab"), s.PredictChurnLab)
	api.POST("/predict-clv-lab", s.labLimiter.Middleware("predict-clv-lab"), s.PredictCLVLab)
	api.POST("/calculate-lab", s.labLimiter.Middleware("calculate-lab"), s.CalculateLab)
}
