package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apikeydomain "github.com/athenajq/lunchline/internal/apikey/domain"
	"github.com/athenajq/lunchline/internal/authorization"
	"github.com/athenajq/lunchline/internal/clock"
	"github.com/athenajq/lunchline/internal/config"
	"github.com/athenajq/lunchline/internal/observability/logger"
	"github.com/athenajq/lunchline/internal/observability/metrics"
	"github.com/athenajq/lunchline/internal/observability/tracing"
	orderdomain "github.com/athenajq/lunchline/internal/order/domain"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleconfigdomain "github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

const HeaderOrg = "X-Org-Id"

// HeaderUser identifies the member on whose behalf an API key caller acts.
// The gateway in front of this service is trusted to set it.
const HeaderUser = "X-User-Id"

type Server struct {
	cfg     config.Config
	db      *gorm.DB
	log     *zap.Logger
	clk     clock.Clock
	engine  *gin.Engine
	limiter *rateLimiter

	scheduleSvc scheduledomain.Service
	orderSvc    orderdomain.Service
	cfgSvc      scheduleconfigdomain.Service
	apikeySvc   apikeydomain.Service
	authzSvc    authorization.Service
}

type Param struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	ScheduleSvc scheduledomain.Service
	OrderSvc    orderdomain.Service
	CfgSvc      scheduleconfigdomain.Service
	APIKeySvc   apikeydomain.Service
	AuthzSvc    authorization.Service
}

func NewServer(p Param) *Server {
	if p.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:         p.Config,
		db:          p.DB,
		log:         p.Log.Named("server"),
		clk:         p.Clock,
		limiter:     newRateLimiter(p.Config.HTTP.RateLimitPerMinute, time.Minute),
		scheduleSvc: p.ScheduleSvc,
		orderSvc:    p.OrderSvc,
		cfgSvc:      p.CfgSvc,
		apikeySvc:   p.APIKeySvc,
		authzSvc:    p.AuthzSvc,
	}
	s.engine = s.buildEngine()
	return s
}

func (s *Server) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(tracing.GinMiddleware("lunchline"))
	engine.Use(metrics.GinMiddleware(metrics.HTTP()))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", HeaderUser},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/healthz", s.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.POST("/internal/test/cleanup", s.TestCleanup)

	api := engine.Group("/api", s.RateLimit(), s.APIKeyRequired())
	{
		api.GET("/schedule", s.GetSchedule)
		api.POST("/orders", s.PlaceOrder)
		api.PATCH("/orders/:id", s.UpdateOrder)
		api.DELETE("/orders/:id", s.CancelOrder)

		admin := api.Group("/admin")
		{
			admin.GET("/schedule-config", s.GetScheduleConfig)
			admin.PUT("/schedule-config", s.PutScheduleConfig)
			admin.GET("/api-keys", s.ListAPIKeys)
			admin.POST("/api-keys", s.CreateAPIKey)
			admin.DELETE("/api-keys/:id", s.RevokeAPIKey)
		}
	}

	return engine
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) Health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RateLimit throttles per client key: the API key when present, the client
// address otherwise.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			key = c.ClientIP()
		}
		if !s.limiter.Allow(key) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
