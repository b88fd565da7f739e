package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	auditdomain "github.com/railzwaylabs/seatbill/internal/audit/domain"
	"github.com/railzwaylabs/seatbill/internal/config"
	contractdomain "github.com/railzwaylabs/seatbill/internal/contract/domain"
	pipelinedomain "github.com/railzwaylabs/seatbill/internal/pipeline/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewServer),
	fx.Invoke(Start),
)

type Params struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Registry    *prometheus.Registry
	PipelineSvc pipelinedomain.Service
	ContractSvc contractdomain.Service
	AuditSvc    auditdomain.Service
}

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	db          *gorm.DB
	registry    *prometheus.Registry
	pipelineSvc pipelinedomain.Service
	contractSvc contractdomain.Service
	auditSvc    auditdomain.Service
	engine      *gin.Engine
}

func NewServer(p Params) *Server {
	if !p.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:         p.Config,
		log:         p.Log.Named("http.server"),
		db:          p.DB,
		registry:    p.Registry,
		pipelineSvc: p.PipelineSvc,
		contractSvc: p.ContractSvc,
		auditSvc:    p.AuditSvc,
		engine:      gin.New(),
	}
	s.engine.Use(gin.Recovery(), RequestID(), s.AccessLog())
	s.RegisterRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", s.Metrics())

	api := s.engine.Group("/api")
	api.GET("/reconcile/:customerId", s.Reconcile)
	api.POST("/batch-summary", s.BatchSummary)

	api.GET("/contracts", s.ListContracts)
	api.GET("/contracts/:customerId", s.GetContract)
	api.PUT("/contracts/:customerId", s.PutContract)

	api.GET("/runs", s.ListRuns)
	api.GET("/runs/export", s.ExportRuns)
}

// Start serves HTTP for the lifetime of the fx application.
func Start(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			s.log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
