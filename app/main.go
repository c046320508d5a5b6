package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maintenance/app/internal/cache"
	"maintenance/app/internal/config"
	"maintenance/app/internal/database"
	"maintenance/app/internal/handlers"
	"maintenance/app/internal/logging"
	"maintenance/app/internal/metrics"
	"maintenance/app/internal/models"
	"maintenance/app/internal/ratelimit"
	"maintenance/app/internal/security"
	"maintenance/app/internal/stats"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const housekeepingInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := database.Init(cfg.DBPath); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	provider := newCacheProvider(ctx, cfg, log)
	defer provider.Close()

	svc := stats.NewService(provider, cfg.CacheTTL, log)

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if err := metrics.Register(reg); err != nil {
			log.WithError(err).Fatal("Failed to register metrics")
		}
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	limiter := ratelimit.New(ratelimit.Config{
		TokensPerMinute: cfg.RateLimitPerMinute,
		MaxTokens:       cfg.RateLimitPerMinute,
	})
	defer limiter.Stop()

	proxies, err := security.NewProxyTrust(cfg.TrustedProxies)
	if err != nil {
		log.WithError(err).Fatal("Invalid trusted proxy list")
	}

	if cfg.ConfigFile != "" {
		go func() {
			err := config.Watch(ctx, cfg.ConfigFile, log, func(next *config.Config) {
				if logging.SetLevel(log, next.LogLevel) {
					log.WithField("level", next.LogLevel).Info("Log level updated")
				}
			})
			if err != nil {
				log.WithError(err).Warn("Config watcher stopped")
			}
		}()
	}

	go runHousekeeping(ctx, cfg.ActivityKeep, log)

	handler := handlers.SetupRoutes(handlers.Options{
		Stats:       svc,
		Log:         log,
		ReportTitle: cfg.ReportTitle,
		Limiter:     limiter,
		Proxies:     proxies,
		Metrics:     metricsHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := database.InsertActivity(database.LogLevelInfo, database.LogCategorySystem, 0, "Server started", "port "+cfg.Port); err != nil {
		log.WithError(err).Warn("Failed to write activity log")
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("Server failed")
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// newCacheProvider uses Redis when configured and falls back to the
// in-process cache when Redis is unset or unreachable.
func newCacheProvider(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) cache.Provider {
	if cfg.RedisURL != "" {
		p, err := cache.NewRedisProvider(ctx, cfg.RedisURL, "maintenance:")
		if err == nil {
			log.Info("Indicator cache backed by Redis")
			return p
		}
		log.WithError(err).Warn("Redis unavailable, using in-memory indicator cache")
	}
	return cache.NewMemoryProvider(cfg.CacheTTL)
}

// runHousekeeping trims the activity log and reports overdue preventive plans
func runHousekeeping(ctx context.Context, keep int, log logrus.FieldLogger) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		housekeep(keep, log)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func housekeep(keep int, log logrus.FieldLogger) {
	if keep > 0 {
		if err := database.PruneActivity(keep); err != nil {
			log.WithError(err).Warn("Failed to prune activity log")
		}
	}

	today := time.Now().UTC().Format("2006-01-02")
	due, err := database.GetPreventivePlans(models.PlanFilter{DueBefore: today})
	if err != nil {
		log.WithError(err).Warn("Failed to list due preventive plans")
		return
	}
	for _, p := range due {
		log.WithFields(logrus.Fields{
			"plan_id":      p.ID,
			"equipment_id": p.EquipmentID,
			"due":          p.NextDueDate,
		}).Info("Preventive maintenance due")
	}
}
