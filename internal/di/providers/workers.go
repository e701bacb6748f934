package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/rewearapp/rewear-server/internal/config"
	"github.com/rewearapp/rewear-server/internal/logger"
	"github.com/rewearapp/rewear-server/internal/service"
)

// SwapSweepJob periodically cancels pending swaps that outlived their TTL.
type SwapSweepJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SwapSweepJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSwapSweepJob provides the periodic pending-swap sweep.
func ProvideSwapSweepJob(i do.Injector) (*SwapSweepJob, error) {
	swapService := do.MustInvoke[*service.SwapService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(cfg.Engine.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if count, err := swapService.SweepExpired(ctx); err != nil {
					log.Warn("Swap sweep failed", "error", err)
				} else if count > 0 {
					log.Info("Swap sweep completed", "cancelled", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Swap sweep job started",
		"interval", cfg.Engine.SweepInterval,
		"pending_ttl", cfg.Engine.PendingSwapTTL,
	)

	return &SwapSweepJob{cancel: cancel}, nil
}

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := authService.CleanupSessions(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial session cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := authService.CleanupSessions(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}

// ViewFlushJob periodically drains cached item view counts into the database.
type ViewFlushJob struct {
	registry *service.RegistryService
	cancel   context.CancelFunc
}

// Shutdown flushes one final time so buffered counts survive a restart.
func (j *ViewFlushJob) Shutdown() error {
	j.cancel()
	ctx, cancelFlush := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelFlush()
	_, err := j.registry.FlushViews(ctx)
	return err
}

// ProvideViewFlushJob provides the periodic view-count flush.
func ProvideViewFlushJob(i do.Injector) (*ViewFlushJob, error) {
	registry := do.MustInvoke[*service.RegistryService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(cfg.Engine.ViewFlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if count, err := registry.FlushViews(ctx); err != nil {
					log.Warn("View flush failed", "error", err)
				} else if count > 0 {
					log.Debug("View counts flushed", "items", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("View flush job started", "interval", cfg.Engine.ViewFlushInterval)

	return &ViewFlushJob{registry: registry, cancel: cancel}, nil
}
