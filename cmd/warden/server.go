package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flocksocial/integrity/accountstore"
	"github.com/flocksocial/integrity/cachestore"
	"github.com/flocksocial/integrity/countstore"
	"github.com/flocksocial/integrity/detector"
	"github.com/flocksocial/integrity/engine"
	"github.com/flocksocial/integrity/flagstore"
	"github.com/flocksocial/integrity/monetize"
	"github.com/flocksocial/integrity/sweeper"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	slogecho "github.com/samber/slog-echo"
	"gorm.io/gorm"
)

type Server struct {
	logger        *slog.Logger
	engine        *engine.Engine
	sweeper       *sweeper.Sweeper
	sweepInterval time.Duration
	echo          *echo.Echo
	httpd         *http.Server
	rdb           *redis.Client
}

type Config struct {
	Logger        *slog.Logger
	RedisURL      string
	Bind          string
	SweepInterval time.Duration
}

func NewServer(db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	accounts, err := accountstore.NewGormAccountStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing account store: %w", err)
	}
	profiles, err := monetize.NewGormProfileStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing profile store: %w", err)
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh

		flg, err := flagstore.NewRedisFlagStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis flagstore: %v", err)
		}
		flags = flg
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
		flags = flagstore.NewMemFlagStore()
	}

	eng := engine.Engine{
		Logger:   logger,
		Rules:    detector.DefaultRules(),
		Accounts: accounts,
		Profiles: profiles,
		Counters: counters,
		Flags:    flags,
		Cache:    cache,
		Clock:    engine.SystemClock{},
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	srv := &Server{
		logger:        logger,
		engine:        &eng,
		sweeper:       sweeper.NewSweeper(&eng, logger),
		sweepInterval: config.SweepInterval,
		echo:          e,
		rdb:           rdb,
	}
	srv.httpd = &http.Server{
		Handler:        srv,
		Addr:           config.Bind,
		WriteTimeout:   time.Minute,
		ReadTimeout:    time.Minute,
		MaxHeaderBytes: 1 * (1024 * 1024),
	}
	e.HTTPErrorHandler = srv.errorHandler

	e.GET("/_health", srv.HandleHealthCheck)
	e.PUT("/admin/accounts/:id", srv.HandleUpsertAccount)
	e.GET("/admin/accounts/:id", srv.HandleGetAccount)
	e.POST("/admin/accounts/:id/detect", srv.HandleDetect)
	e.POST("/admin/accounts/:id/sanctions/apply", srv.HandleApplySanctions)
	e.POST("/admin/accounts/:id/sanctions/clean", srv.HandleCleanSanctions)
	e.POST("/admin/accounts/:id/sanctions/manual", srv.HandleManualSanction)
	e.DELETE("/admin/accounts/:id/sanctions/:type", srv.HandleLiftSanction)
	e.POST("/admin/accounts/:id/events/post", srv.HandlePostEvent)
	e.POST("/admin/accounts/:id/events/engagement", srv.HandleEngagement)
	e.POST("/admin/accounts/:id/events/followers", srv.HandleFollowerSample)
	e.PUT("/admin/accounts/:id/metrics", srv.HandleUpdateMetrics)
	e.POST("/admin/accounts/:id/score/recalculate", srv.HandleRecalculateScore)
	e.GET("/admin/accounts/:id/eligibility", srv.HandleEligibility)
	e.POST("/admin/accounts/:id/earnings", srv.HandleRecordEarning)
	e.POST("/admin/accounts/:id/withdrawals", srv.HandleWithdraw)
	e.POST("/admin/sweep", srv.HandleSweep)

	return srv, nil
}

func (srv *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	srv.echo.ServeHTTP(rw, req)
}

// Run starts the admin API and the background sweep loop, then blocks until an
// OS exit signal arrives.
func (srv *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if srv.sweepInterval > 0 {
		go func() {
			srv.logger.Info("starting reconciliation sweep loop", "interval", srv.sweepInterval)
			if err := srv.sweeper.RunLoop(ctx, srv.sweepInterval); err != nil && !errors.Is(err, context.Canceled) {
				srv.logger.Error("sweep loop exited", "err", err)
			}
		}()
	}

	srv.logger.Info("starting admin API", "bind", srv.httpd.Addr)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				srv.logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exitSignals
	srv.logger.Info("received OS exit signal", "signal", sig)

	cancel()
	if err := srv.Shutdown(); err != nil {
		srv.logger.Error("HTTP server shutdown error", "err", err)
	}
	srv.logger.Info("graceful shutdown complete")
	return nil
}

func (srv *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (srv *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.httpd.Shutdown(ctx)
}
