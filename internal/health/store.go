package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/harborpost/harborpost/internal/store"
)

// StoreChecker monitors store connectivity via periodic pings.
type StoreChecker struct {
	store        store.Store
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewStoreChecker creates a store checker. It starts unhealthy until the
// first successful probe.
func NewStoreChecker(st store.Store, log zerolog.Logger, probeTimeout time.Duration) *StoreChecker {
	hc := &StoreChecker{store: st, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0)
	return hc
}

func (hc *StoreChecker) Name() string { return "store" }

// IsHealthy returns the cached health status (non-blocking).
func (hc *StoreChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start begins periodic health checking and blocks until ctx is cancelled.
func (hc *StoreChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		probeCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		if err := hc.store.Ping(probeCtx); err != nil {
			hc.log.Error().Stack().Str("checker", hc.Name()).Err(err).Msg("store health check failed")
			hc.healthy.Store(0)
			return
		}
		hc.healthy.Store(1)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
