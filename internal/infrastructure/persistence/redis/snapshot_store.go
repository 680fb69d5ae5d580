// Package redis implements the snapshot store on Redis. The engine treats
// the store as an opaque async KV: one JSON document per user, replaced
// wholesale on every save. Values are validated before being trusted;
// a corrupt record is deleted and reported as "no prior progress".
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finquest-app/progression-engine/internal/domain/progression"
	"github.com/finquest-app/progression-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// MaxRetries is the maximum number of retries before giving up.
	MaxRetries int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS & KEYS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrConnection is returned when the Redis connection fails.
	ErrConnection = errors.New("redis: connection failed")

	// ErrSerialization is returned when snapshot encoding fails.
	ErrSerialization = errors.New("redis: serialization failed")
)

// PrefixSnapshot namespaces progress snapshot keys.
const PrefixSnapshot = "progression:snapshot:"

// SnapshotKey builds the storage key for a user's snapshot.
func SnapshotKey(userID string) string {
	return PrefixSnapshot + userID
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT STORE
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotStore implements progression.SnapshotStore on Redis.
// Snapshots have no TTL: progress must survive arbitrary absences.
type SnapshotStore struct {
	client *redis.Client
	log    *logger.Logger
}

// NewSnapshotStore connects to Redis and verifies the connection.
func NewSnapshotStore(cfg Config, log *logger.Logger) (*SnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if log == nil {
		log = logger.Default()
	}
	return &SnapshotStore{
		client: client,
		log:    log.With(logger.String("component", "redis_snapshot_store")),
	}, nil
}

// Client returns the underlying Redis client for advanced operations.
func (s *SnapshotStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

// Load fetches and decodes a user's snapshot.
// Returns progression.ErrNoSnapshot when the key is absent. A record that
// fails to decode or validate is deleted and reported as absent: a corrupt
// blob must never be partially trusted.
func (s *SnapshotStore) Load(ctx context.Context, userID string) (*progression.Snapshot, error) {
	key := SnapshotKey(userID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, progression.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis: load %s: %w", key, err)
	}

	var snap progression.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.discardCorrupt(ctx, key, err)
		return nil, progression.ErrNoSnapshot
	}
	if err := snap.Validate(); err != nil {
		s.discardCorrupt(ctx, key, err)
		return nil, progression.ErrNoSnapshot
	}

	snap.Sanitize()
	return &snap, nil
}

// Save encodes and stores the full snapshot under the user's key.
func (s *SnapshotStore) Save(ctx context.Context, userID string, snap *progression.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrSerialization)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if err := s.client.Set(ctx, SnapshotKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: save %s: %w", SnapshotKey(userID), err)
	}
	return nil
}

// Delete removes a user's snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, SnapshotKey(userID)).Err()
}

// discardCorrupt drops an unusable record so the next load starts clean.
func (s *SnapshotStore) discardCorrupt(ctx context.Context, key string, cause error) {
	s.log.Error("corrupt snapshot discarded",
		logger.String("key", key),
		logger.Err(cause))
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Warn("failed to delete corrupt snapshot", logger.String("key", key), logger.Err(err))
	}
}
