package storage

import (
	"sync"
	"time"
)

// Health is the last observed state of a storage backend
type Health struct {
	LastCheck time.Time `json:"lastCheck"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthManager manages storage health status in memory
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]*Health
}

// NewHealthManager creates a new health manager
func NewHealthManager() *HealthManager {
	return &HealthManager{
		health: make(map[string]*Health),
	}
}

// UpdateHealth updates the health status for a storage backend
func (hm *HealthManager) UpdateHealth(storageType string, health *Health) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	healthCopy := *health
	hm.health[storageType] = &healthCopy
}

// GetHealth retrieves the health status for a specific storage backend
func (hm *HealthManager) GetHealth(storageType string) (*Health, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	health, exists := hm.health[storageType]
	if !exists {
		return nil, false
	}

	healthCopy := *health
	return &healthCopy, true
}

// GetAllHealth returns a snapshot of every backend's health
func (hm *HealthManager) GetAllHealth() map[string]Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	all := make(map[string]Health, len(hm.health))
	for name, h := range hm.health {
		all[name] = *h
	}
	return all
}

// Healthy reports whether every known backend is healthy
func (hm *HealthManager) Healthy() bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	for _, h := range hm.health {
		if h.Status != StatusHealthy {
			return false
		}
	}
	return true
}
