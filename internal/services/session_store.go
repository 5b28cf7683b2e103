package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"studentpulse/internal/config"
	"studentpulse/internal/infrastructure"
	"studentpulse/pkg/contracts/domain"
)

// Session is an uploaded dataset kept between requests. The dataset is
// the raw upload; every analysis starts again from it.
type Session struct {
	ID        string
	FileName  string
	Format    domain.SourceFormat
	Dataset   domain.Dataset
	CreatedAt time.Time
}

// SessionStore keeps sessions in memory and evicts them after the
// configured idle time
type SessionStore struct {
	cache   *ttlcache.Cache[string, *Session]
	metrics *infrastructure.DashboardMetrics
	logger  *slog.Logger
	ttl     time.Duration
	running atomic.Bool
}

// NewSessionStore creates a store. Call Start to begin expiring sessions
// and Stop to release the cleanup goroutine.
func NewSessionStore(cfg config.SessionConfig, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []ttlcache.Option[string, *Session]{
		ttlcache.WithTTL[string, *Session](cfg.TTL),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *Session](cfg.Capacity))
	}

	s := &SessionStore{
		cache:   ttlcache.New(opts...),
		metrics: metrics,
		logger:  logger.With(slog.String("component", "session_store")),
		ttl:     cfg.TTL,
	}

	s.cache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		s.metrics.RecordSessionDelta(ctx, -1)
		s.logger.DebugContext(ctx, "Session evicted",
			slog.String("session_id", item.Key()),
			slog.String("reason", evictionReason(reason)))
	})

	return s
}

func evictionReason(r ttlcache.EvictionReason) string {
	switch r {
	case ttlcache.EvictionReasonDeleted:
		return "deleted"
	case ttlcache.EvictionReasonCapacityReached:
		return "capacity"
	case ttlcache.EvictionReasonExpired:
		return "expired"
	}
	return "unknown"
}

// Start runs the expiry loop in the background. Extra calls are no-ops.
func (s *SessionStore) Start() {
	if s.running.CompareAndSwap(false, true) {
		go s.cache.Start()
	}
}

// Stop ends the expiry loop if it is running
func (s *SessionStore) Stop() {
	if s.running.CompareAndSwap(true, false) {
		s.cache.Stop()
	}
}

// Create stores a new session for ds and returns it
func (s *SessionStore) Create(ctx context.Context, fileName string, format domain.SourceFormat, ds domain.Dataset) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Format:    format,
		Dataset:   ds,
		CreatedAt: time.Now().UTC(),
	}
	s.cache.Set(session.ID, session, ttlcache.DefaultTTL)
	s.metrics.RecordSessionDelta(ctx, 1)

	s.logger.InfoContext(ctx, "Session created",
		slog.String("session_id", session.ID),
		slog.String("file_name", fileName),
		slog.Int("rows", ds.Rows()),
		slog.Int("columns", ds.Width()),
		slog.Duration("ttl", s.ttl))
	return session
}

// Get returns a live session and restarts its idle timer
func (s *SessionStore) Get(id string) (*Session, error) {
	item := s.cache.Get(id)
	if item == nil || item.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return item.Value(), nil
}

// Delete removes a session
func (s *SessionStore) Delete(id string) error {
	if !s.cache.Has(id) {
		return ErrSessionNotFound
	}
	s.cache.Delete(id)
	return nil
}

// Len returns the number of sessions held, including expired ones not yet
// cleaned up
func (s *SessionStore) Len() int {
	return s.cache.Len()
}
