package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/attacker99/arcana/internal/domain"
)

// SessionRegistry is an in-memory store of live reading sessions. Sessions
// idle past the TTL are evicted by a background janitor.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewSessionRegistry(ttl time.Duration, logger *slog.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		logger:   logger,
	}
}

func (r *SessionRegistry) Put(s *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

func (r *SessionRegistry) Get(id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrReadingNotFound
	}
	return s, nil
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle longer than the TTL and reports how many were
// removed. The janitor calls it on every tick.
func (r *SessionRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastActive()) > r.ttl {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartJanitor sweeps on every interval tick until Stop is called.
func (r *SessionRegistry) StartJanitor(interval time.Duration) {
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				if n := r.Sweep(time.Now()); n > 0 {
					r.logger.Info("evicted idle sessions", "count", n, "live", r.Len())
				}
			}
		}
	}()
}

// Stop halts the janitor and waits for its goroutine to exit. It is a
// no-op when the janitor never started.
func (r *SessionRegistry) Stop() {
	if r.stop == nil {
		return
	}
	close(r.stop)
	<-r.done
}
