package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Redis     bool      `json:"redis"`
	Telegram  bool      `json:"telegram"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// StartHealthMonitor performs periodic health checks and updates in-memory
// state. redisClient may be nil when the in-memory conversation store is in
// use; pingTransport probes the chat transport (e.g. Telegram getMe).
func StartHealthMonitor(redisClient *redis.Client, pingTransport func() error) {
	probe := func(ctx context.Context) {
		redisHealthy := redisClient == nil
		if redisClient != nil {
			redisHealthy = redisClient.Ping(ctx).Err() == nil
		}

		transportHealthy := pingTransport() == nil

		mu.Lock()
		currentHealth = HealthStatus{
			Redis:     redisHealthy,
			Telegram:  transportHealthy,
			CheckedAt: time.Now(),
		}
		mu.Unlock()
	}

	// First snapshot is taken synchronously so /healthz never serves the
	// zero value while the first tick is pending.
	probe(context.Background())

	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			probe(context.Background())
		}
	}()
}
