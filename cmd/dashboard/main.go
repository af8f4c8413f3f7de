package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"stockwatch/internal/config"
	cronrunner "stockwatch/internal/cron"
	"stockwatch/internal/handler"
	"stockwatch/internal/handoff"
	"stockwatch/internal/logger"
	"stockwatch/internal/session"
	"stockwatch/internal/upstream"

	_ "stockwatch/docs"
)

func main() {
	cfgPath := os.Getenv("SW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SW_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	upstreamHTTP := &http.Client{Timeout: cfg.Upstream.Timeout}
	upstreamClient := upstream.NewClient(upstreamHTTP, cfg.Upstream.BaseURL)

	handoffStore := newHandoffStore(cfg, logger)
	signer := session.JWT{
		Secret:   sessionSecret(cfg, logger),
		TokenTTL: cfg.Session.TokenTTL,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewManager(ctx, session.Options{
		API:                 upstreamClient,
		Handoff:             handoffStore,
		HandoffTTL:          cfg.Handoff.TTL,
		Logger:              logger,
		IdleTTL:             cfg.Session.IdleTTL,
		DefaultPageSize:     cfg.View.DefaultPageSize,
		MaxPageSize:         cfg.View.MaxPageSize,
		MaterializePageSize: cfg.Materialize.PageSize,
		MaterializeMaxPages: cfg.Materialize.MaxPages,
		LoadTimeout:         cfg.View.LoadTimeout,
		RefreshEvery:        cfg.Session.RefreshInterval,
	})
	defer sessions.CloseAll()

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	auth := (&handler.SessionMiddleware{JWT: signer, Sessions: sessions}).Handler()

	healthHandler := &handler.HealthHandler{Upstream: upstreamClient, Sessions: sessions}
	healthHandler.Register(engine)
	sessionHandler := &handler.SessionHandler{Sessions: sessions, JWT: signer, Logger: logger}
	sessionHandler.Register(engine, auth)
	watchlistHandler := &handler.WatchlistHandler{Logger: logger}
	watchlistHandler.Register(engine, auth)
	operationsHandler := &handler.OperationsHandler{Logger: logger}
	operationsHandler.Register(engine, auth)
	categoryHandler := &handler.CategoryHandler{Upstream: upstreamClient, Logger: logger}
	categoryHandler.Register(engine, auth)
	handoffHandler := &handler.HandoffHandler{Store: handoffStore, Logger: logger}
	handoffHandler.Register(engine, auth)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add(cfg.Session.SweepSpec, func(ctx context.Context) {
			if n := sessions.Sweep(ctx); n > 0 {
				logger.Info("swept idle sessions", zap.Int("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register session sweep failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func sessionSecret(cfg config.Config, logger *zap.Logger) []byte {
	if s := strings.TrimSpace(cfg.Session.Secret); s != "" {
		return []byte(s)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	logger.Warn("session.secret not set, generated a random one; tokens will not survive restarts")
	return buf
}

func newHandoffStore(cfg config.Config, logger *zap.Logger) handoff.Store {
	if strings.EqualFold(cfg.Handoff.Backend, "redis") {
		logger.Info("handoff store: redis", zap.String("addr", cfg.Redis.Addr))
		return handoff.NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	logger.Info("handoff store: in-memory")
	return handoff.NewMemoryStore()
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
