package session

import (
	"context"
	"log"
	"time"
)

// NamespaceDeleter removes all persisted files of a session.
type NamespaceDeleter interface {
	DeleteNamespace(sessionID string) error
}

// Sweeper deletes sessions past their maximum age, together with their
// on-disk file namespace. Deletion is unconditional: attached
// connections and in-flight downloads are not checked.
type Sweeper struct {
	registry *Registry
	store    NamespaceDeleter
	maxAge   time.Duration
	interval time.Duration
}

func NewSweeper(registry *Registry, store NamespaceDeleter, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{
		registry: registry,
		store:    store,
		maxAge:   maxAge,
		interval: interval,
	}
}

// Start runs the sweep loop in a background goroutine until the context
// is cancelled or the returned stop channel is closed.
func (s *Sweeper) Start(ctx context.Context) chan struct{} {
	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stopCh:
				log.Println("session sweeper stopped")
				return
			case <-ctx.Done():
				log.Println("session sweeper stopped (context done)")
				return
			}
		}
	}()

	log.Printf("session sweeper started: interval=%v max_age=%v", s.interval, s.maxAge)
	return stopCh
}

// Sweep performs a single pass.
func (s *Sweeper) Sweep() {
	start := time.Now()
	removed := s.registry.SweepExpired(s.maxAge)
	for _, id := range removed {
		if err := s.store.DeleteNamespace(id); err != nil {
			log.Printf("sweep: failed to delete namespace for session %s: %v", id, err)
		}
	}
	if len(removed) > 0 {
		log.Printf("sweep completed: removed %d expired sessions in %v", len(removed), time.Since(start))
	}
}
