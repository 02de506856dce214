// Package db owns the PostgreSQL connection pool and the embedded schema
// migrations.
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/logiflow/dispatch-backend/logger"
)

// DatabaseClient wraps a pgxpool.Pool created with connection retries.
type DatabaseClient struct {
	pool       *pgxpool.Pool
	config     *pgxpool.Config
	maxRetries int
	retryDelay time.Duration
	mu         sync.RWMutex
}

// NewDatabaseClient wraps an existing pool.
func NewDatabaseClient(pool *pgxpool.Pool) *DatabaseClient {
	return &DatabaseClient{pool: pool, maxRetries: 5, retryDelay: time.Second}
}

// NewDatabaseClientWithConfig keeps config so Connect can build the pool.
func NewDatabaseClientWithConfig(pool *pgxpool.Pool, config *pgxpool.Config) *DatabaseClient {
	c := NewDatabaseClient(pool)
	c.config = config
	return c
}

// Connect creates the pool from the stored config and pings it, retrying with
// linear backoff.
func (dc *DatabaseClient) Connect(ctx context.Context) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.config == nil {
		return fmt.Errorf("cannot connect: database configuration not available")
	}

	log := logger.GetLogger()
	var lastErr error
	for attempt := 1; attempt <= dc.maxRetries; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, dc.config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				dc.pool = pool
				return nil
			}
			pool.Close()
		}
		lastErr = err
		log.Warnw("Database connection attempt failed", "attempt", attempt, "max_attempts", dc.maxRetries, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * dc.retryDelay):
		}
	}
	return fmt.Errorf("failed to connect to database after %d attempts: %w", dc.maxRetries, lastErr)
}

// GetPool returns the underlying pool.
func (dc *DatabaseClient) GetPool() *pgxpool.Pool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.pool
}

// Close closes the pool if one was created.
func (dc *DatabaseClient) Close() {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if dc.pool != nil {
		dc.pool.Close()
		dc.pool = nil
	}
}
