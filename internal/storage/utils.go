package storage

import (
	"context"
	"time"

	"github.com/chrissnell/changepoints/internal/log"
)

// CheckHealth pings s once and converts the outcome into a Health record
func CheckHealth(ctx context.Context, s Store) *Health {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health := &Health{LastCheck: time.Now().UTC()}
	if err := s.Ping(ctx); err != nil {
		health.Status = StatusUnhealthy
		health.Message = "ping failed"
		health.Error = err.Error()
		return health
	}
	health.Status = StatusHealthy
	health.Message = "ok"
	return health
}

// StartHealthMonitor pings s immediately and then on every interval until ctx
// is cancelled, recording the result under storageType
func StartHealthMonitor(ctx context.Context, hm *HealthManager, storageType string, s Store, interval time.Duration) {
	updateHealth := func() {
		health := CheckHealth(ctx, s)
		hm.UpdateHealth(storageType, health)
		log.Debugf("updated %s health status: %s", storageType, health.Status)
	}

	updateHealth()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				updateHealth()
			case <-ctx.Done():
				log.Infof("stopping %s health monitor", storageType)
				return
			}
		}
	}()
}
