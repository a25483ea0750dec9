package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/partyjam/partyjam/internal/broadcast"
	"github.com/partyjam/partyjam/internal/playback"
)

const (
	// Sessions untouched for this long are evicted.
	DefaultIdleTTL = 24 * time.Hour

	// How often the eviction worker scans the registry.
	EvictionInterval = 2 * time.Hour
)

// Constants for pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListResponse is a page of sessions.
type ListResponse struct {
	Sessions      []Snapshot `json:"sessions"`
	Page          int        `json:"page"`
	PageSize      int        `json:"pageSize"`
	TotalSessions int        `json:"totalSessions"`
	TotalPages    int        `json:"totalPages"`
}

// Registry is the process-wide map from session id to Session. It is
// constructed at process start and injected into the request handlers;
// there is no ambient global session state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	hub broadcast.Hub
}

func NewRegistry(hub broadcast.Hub) *Registry {
	if hub == nil {
		hub = broadcast.NopHub{}
	}
	return &Registry{
		sessions: make(map[string]*Session),
		hub:      hub,
	}
}

// Create makes a new session with the caller as DJ. If playlistID is set
// the provider is consulted once to seed the queue; a fetch failure
// degrades to an empty queue rather than failing the create.
func (r *Registry) Create(ctx context.Context, name string, dj UserRef, playlistID string, provider playback.Provider) (*Session, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: session name is required", ErrValidation)
	}
	if dj.UserID == "" {
		return nil, fmt.Errorf("%w: dj userId is required", ErrValidation)
	}

	sess := newSession(uuid.NewString(), name, dj, r.hub)
	if playlistID != "" && provider != nil {
		sess.seedFromPlaylist(ctx, provider, playlistID)
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	slog.Info("session created", "session", sess.ID, "name", name, "dj", dj.UserID)
	return sess, nil
}

// Get retrieves a session by id.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// List returns a page of session snapshots.
func (r *Registry) List(page, pageSize int) *ListResponse {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	r.mu.RLock()
	snapshots := make([]Snapshot, 0, len(r.sessions))
	for _, sess := range r.sessions {
		snapshots = append(snapshots, sess.Snapshot())
	}
	r.mu.RUnlock()

	total := len(snapshots)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start >= total {
		return &ListResponse{
			Sessions:      []Snapshot{},
			Page:          page,
			PageSize:      pageSize,
			TotalSessions: total,
			TotalPages:    totalPages,
		}
	}

	end := start + pageSize
	if end > total {
		end = total
	}

	return &ListResponse{
		Sessions:      snapshots[start:end],
		Page:          page,
		PageSize:      pageSize,
		TotalSessions: total,
		TotalPages:    totalPages,
	}
}

// StartEvictionWorker starts a background worker that drops idle
// sessions. It runs until ctx is cancelled.
func (r *Registry) StartEvictionWorker(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	ticker := time.NewTicker(EvictionInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.evictIdle(ttl)
			}
		}
	}()
	slog.Info("session eviction worker started", "interval", EvictionInterval, "ttl", ttl)
}

func (r *Registry) evictIdle(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	// LastActive blocks on the session mutex, which a slow provider call
	// inside PlayNext can hold for a while. Scan without the registry
	// write lock so lookups and creates stay responsive, then delete the
	// victims.
	r.mu.RLock()
	candidates := make(map[string]*Session, len(r.sessions))
	for id, sess := range r.sessions {
		candidates[id] = sess
	}
	r.mu.RUnlock()

	for id, sess := range candidates {
		if sess.LastActive().Before(cutoff) {
			r.mu.Lock()
			delete(r.sessions, id)
			r.mu.Unlock()
			slog.Info("evicted idle session", "session", id, "name", sess.Name)
		}
	}
}
