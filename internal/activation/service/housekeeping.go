package service

import (
	"context"
	"log/slog"
	"time"
)

// HousekeepingService periodically runs the retention policies and the
// API-key purge so abandoned and long-expired records don't accumulate
// between requests.
type HousekeepingService struct {
	Retention *RetentionService
	APIKeys   *APIKeyService
	Logger    *slog.Logger
	Interval  time.Duration

	// Policies run on every tick, each independently.
	Policies []RetentionPolicy

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(
	retention *RetentionService,
	apiKeys *APIKeyService,
	logger *slog.Logger,
	interval time.Duration,
	policies ...RetentionPolicy,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Retention: retention,
		APIKeys:   apiKeys,
		Logger:    logger,
		Interval:  interval,
		Policies:  policies,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

// run is the main background worker loop.
func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup runs every retention policy plus the API-key purge. Each pass is
// independent - a failure in one won't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping cleanup")

	var totalDeleted int

	for _, policy := range s.Policies {
		result, err := s.Retention.Execute(ctx, policy)
		if err != nil {
			s.Logger.Error("retention policy failed",
				"policy", policy.Name,
				"error", err,
			)
			continue
		}
		totalDeleted += result.DeletedCount
	}

	if s.APIKeys != nil {
		purged, err := s.APIKeys.PurgeExpired(ctx)
		if err != nil {
			s.Logger.Error("failed to purge expired api keys", "error", err)
		} else if purged > 0 {
			s.Logger.Info("purged expired api keys", "count", purged)
		}
	}

	s.Logger.Info("housekeeping cleanup completed", "codes_deleted", totalDeleted)
}
