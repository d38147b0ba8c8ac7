package session

import (
	"sync"
	"time"
)

// Registry owns every live session. All state is in-memory and
// process-local; nothing survives a restart.
//
// Every method takes the registry lock for its whole duration, so
// individual operations are atomic with respect to each other. Long
// work (disk streams, socket writes) must never happen under this lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session with a fresh token that does not
// collide with any currently-live session.
func (r *Registry) Create(password, senderName string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := newToken()
	for _, exists := r.sessions[id]; exists; _, exists = r.sessions[id] {
		id = newToken()
	}

	s := &Session{
		ID:         id,
		Password:   password,
		SenderName: senderName,
		CreatedAt:  time.Now(),
		Active:     true,
		Files:      []File{},
	}
	r.sessions[id] = s
	return s.clone()
}

// Get returns a copy of the session. A closed session is reported as
// not found: from the outside it no longer exists.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return Session{}, ErrSessionNotFound
	}
	return s.clone(), nil
}

// VerifyPassword succeeds when the session has no password set, or when
// the attempt matches exactly. Comparison is plaintext and
// case-sensitive; see the note on Session.Password.
func (r *Registry) VerifyPassword(id, attempt string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return ErrSessionNotFound
	}
	if s.Password != "" && s.Password != attempt {
		return ErrInvalidPassword
	}
	return nil
}

// Active reports whether the session can still accept uploads:
// ErrSessionNotFound if unknown, ErrSessionInactive if closed.
func (r *Registry) Active(id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if !s.Active {
		return ErrSessionInactive
	}
	return nil
}

// Close flips the session inactive. The flip is irreversible; the entry
// stays in the map (so uploads can be rejected with a distinct
// "inactive" error) until the expiry sweeper collects it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return ErrSessionNotFound
	}
	s.Active = false
	return nil
}

// AppendFiles appends file records to an active session and returns the
// full updated client-facing file list.
func (r *Registry) AppendFiles(id string, files []File) ([]FileInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.Active {
		return nil, ErrSessionInactive
	}
	s.Files = append(s.Files, files...)
	return fileInfos(s.Files), nil
}

// Files returns the client-facing file list of a live session.
func (r *Registry) Files(id string) ([]FileInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return nil, ErrSessionNotFound
	}
	return fileInfos(s.Files), nil
}

// LookupFile resolves a single file record, storage path included.
func (r *Registry) LookupFile(id, fileID string) (File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return File{}, ErrSessionNotFound
	}
	for _, f := range s.Files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return File{}, ErrFileNotFound
}

// AddClient increments the connection count of a live session and
// returns the new count.
func (r *Registry) AddClient(id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return 0, ErrSessionNotFound
	}
	s.ConnectedClients++
	return s.ConnectedClients, nil
}

// RemoveClient decrements the connection count with a floor of zero.
// The session may have been closed or swept while the connection was
// alive, so a missing session is not an error here.
func (r *Registry) RemoveClient(id string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return 0, false
	}
	if s.ConnectedClients > 0 {
		s.ConnectedClients--
	}
	return s.ConnectedClients, true
}

// SweepExpired removes every session older than maxAge, active or not,
// and returns the removed ids so the caller can delete their file
// namespaces. No check is made for attached connections or in-flight
// downloads; those surface as stream-level failures.
func (r *Registry) SweepExpired(maxAge time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var removed []string
	for id, s := range r.sessions {
		if now.Sub(s.CreatedAt) > maxAge {
			delete(r.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (s *Session) clone() Session {
	dup := *s
	dup.Files = append([]File(nil), s.Files...)
	return dup
}
