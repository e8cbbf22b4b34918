package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/folio-studio/contactgate/internal/config"
	"github.com/folio-studio/contactgate/internal/contact"
	contactapi "github.com/folio-studio/contactgate/internal/http/api/contact"
	"github.com/folio-studio/contactgate/internal/http/api/contact/handlers"
	"github.com/folio-studio/contactgate/internal/logging"
	"github.com/folio-studio/contactgate/internal/notify"
	"github.com/folio-studio/contactgate/internal/ratelimit"
	"github.com/folio-studio/contactgate/internal/stats"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds graceful shutdown once ctx is done.
const shutdownTimeout = 5 * time.Second

// ConfigExists reports whether the config file exists at the path.
func ConfigExists(configPath string) bool {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false
	}
	return true
}

// LoadConfig loads and validates the file config. A positive port overrides the file and environment.
func LoadConfig(cfg config.AppConfig, port int) (config.Config, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	fileCfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return config.Config{}, errLoad
	}
	if port > 0 {
		fileCfg.Port = port
	}
	if errValidate := fileCfg.Validate(); errValidate != nil {
		return config.Config{}, fmt.Errorf("config: %w", errValidate)
	}
	return fileCfg, nil
}

// Components holds the wired submission pipeline.
type Components struct {
	Limiter    *ratelimit.MemoryLimiter
	Notifier   notify.Notifier
	Recorder   stats.Recorder
	Gatekeeper *contact.Gatekeeper
	closers    []io.Closer
}

// Close releases resources held by the components.
func (c *Components) Close() {
	for _, closer := range c.closers {
		if errClose := closer.Close(); errClose != nil {
			log.WithError(errClose).Warn("app: close component")
		}
	}
}

// Build wires limiter, notifier, stats recorder and gatekeeper from cfg.
func Build(ctx context.Context, cfg config.Config) (*Components, error) {
	loc, errZone := time.LoadLocation(cfg.TimeZone)
	if errZone != nil {
		return nil, fmt.Errorf("app: load time zone: %w", errZone)
	}

	limiter := ratelimit.NewMemoryLimiter(
		cfg.RateLimit.Window,
		cfg.RateLimit.MaxRequests,
		ratelimit.WithCleanupProbability(cfg.RateLimit.CleanupProbability),
	)

	notifier, errNotifier := buildNotifier(cfg)
	if errNotifier != nil {
		return nil, errNotifier
	}

	comps := &Components{Limiter: limiter, Notifier: notifier}
	comps.Recorder = buildRecorder(ctx, cfg.Stats.Redis, comps)

	comps.Gatekeeper = contact.NewGatekeeper(limiter, notifier,
		contact.WithRecorder(comps.Recorder),
		contact.WithLocation(loc),
	)
	return comps, nil
}

func buildNotifier(cfg config.Config) (notify.Notifier, error) {
	if !cfg.Email.Enabled {
		log.Warn("email dispatch disabled, leads will only be logged")
		return notify.NewLogNotifier(), nil
	}
	notifier, errEmail := notify.NewEmailNotifier(notify.EmailConfig{
		APIURL:        cfg.Email.APIURL,
		APIKey:        cfg.Email.APIKey,
		From:          cfg.Email.From,
		To:            cfg.Email.To,
		SiteName:      cfg.SiteName,
		RatePerSecond: cfg.Email.RatePerSecond,
		Timeout:       cfg.Email.Timeout,
	}, nil)
	if errEmail != nil {
		return nil, fmt.Errorf("app: build email notifier: %w", errEmail)
	}
	return notifier, nil
}

// buildRecorder returns a Redis recorder when configured and reachable, otherwise an in-memory one.
func buildRecorder(ctx context.Context, cfg config.RedisConfig, comps *Components) stats.Recorder {
	if !cfg.Enabled {
		return stats.NewMemoryRecorder()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		log.WithError(errPing).WithField("addr", cfg.Addr).Warn("stats redis unreachable, using in-memory counters")
		_ = client.Close()
		return stats.NewMemoryRecorder()
	}
	comps.closers = append(comps.closers, client)
	return stats.NewRedisRecorder(client, cfg.Prefix, cfg.TTL)
}

// NewEngine builds the gin engine serving the contact API.
func NewEngine(cfg config.Config, comps *Components) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(contactapi.CORSMiddleware(cfg.CORSOrigins))
	var outcomes handlers.OutcomeSnapshotter
	if snap, ok := comps.Recorder.(handlers.OutcomeSnapshotter); ok {
		outcomes = snap
	}
	contactapi.RegisterContactRoutes(engine, comps.Gatekeeper, comps.Limiter, outcomes)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

// RunServer boots the contact API and blocks until ctx is done.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	fileCfg, errLoad := LoadConfig(cfg, port)
	if errLoad != nil {
		return errLoad
	}

	logCloser, errLog := logging.Setup(fileCfg.Logging)
	if errLog != nil {
		return errLog
	}
	defer func() { _ = logCloser.Close() }()

	if !ConfigExists(configPath) {
		log.Infof("config not found at %s, using defaults and environment", configPath)
	}

	comps, errBuild := Build(ctx, fileCfg)
	if errBuild != nil {
		return errBuild
	}
	defer comps.Close()

	gin.SetMode(gin.ReleaseMode)
	engine := NewEngine(fileCfg, comps)

	addr := fmt.Sprintf("%s:%d", fileCfg.Host, fileCfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.WithFields(log.Fields{
		"addr":         addr,
		"window":       fileCfg.RateLimit.Window,
		"max_requests": fileCfg.RateLimit.MaxRequests,
		"email":        fileCfg.Email.Enabled,
	}).Info("starting contact server")

	if errListen := srv.ListenAndServe(); errListen != nil && errListen != http.ErrServerClosed {
		return errListen
	}
	return nil
}
