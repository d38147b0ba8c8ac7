package transfer

import "sync"

// Stat is the per-(session, file) download counter set. The invariant
// Active == Started - Completed - Failed holds after every transition.
type Stat struct {
	Started   int64 `json:"started"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Active    int64 `json:"active"`
}

// StatsBroadcaster pushes counter updates to the owning session.
// Implemented by the relay hub.
type StatsBroadcaster interface {
	DownloadStats(sessionID, fileID, clientID string, stat Stat)
	DownloadFailed(sessionID, fileID, clientID, reason string, stat Stat)
}

type statKey struct {
	sessionID string
	fileID    string
}

// Tracker maintains download statistics. Each transition mutates the
// whole counter set under one lock acquisition, then broadcasts the
// resulting snapshot outside the lock.
type Tracker struct {
	mu          sync.Mutex
	stats       map[statKey]*Stat
	broadcaster StatsBroadcaster
}

func NewTracker(broadcaster StatsBroadcaster) *Tracker {
	return &Tracker{
		stats:       make(map[statKey]*Stat),
		broadcaster: broadcaster,
	}
}

// Started records the beginning of a download attempt, creating the
// stat lazily on first use.
func (t *Tracker) Started(sessionID, fileID, clientID string) {
	snap := t.transition(sessionID, fileID, func(s *Stat) {
		s.Started++
		s.Active++
	})
	t.broadcaster.DownloadStats(sessionID, fileID, clientID, snap)
}

// Completed records a fully delivered stream.
func (t *Tracker) Completed(sessionID, fileID, clientID string) {
	snap := t.transition(sessionID, fileID, func(s *Stat) {
		s.Completed++
		if s.Active > 0 {
			s.Active--
		}
	})
	t.broadcaster.DownloadStats(sessionID, fileID, clientID, snap)
}

// Failed records a stream that did not finish: missing on disk, read
// error, or the client going away mid-transfer.
func (t *Tracker) Failed(sessionID, fileID, clientID, reason string) {
	snap := t.transition(sessionID, fileID, func(s *Stat) {
		s.Failed++
		if s.Active > 0 {
			s.Active--
		}
	})
	t.broadcaster.DownloadStats(sessionID, fileID, clientID, snap)
	t.broadcaster.DownloadFailed(sessionID, fileID, clientID, reason, snap)
}

// FailedToStart records an attempt that died before any bytes flowed
// (typically the on-disk object is gone). Started and Failed move
// together in one transition so Active stays consistent.
func (t *Tracker) FailedToStart(sessionID, fileID, clientID, reason string) {
	snap := t.transition(sessionID, fileID, func(s *Stat) {
		s.Started++
		s.Failed++
	})
	t.broadcaster.DownloadStats(sessionID, fileID, clientID, snap)
	t.broadcaster.DownloadFailed(sessionID, fileID, clientID, reason, snap)
}

// Get returns the current counters for a (session, file) pair.
func (t *Tracker) Get(sessionID, fileID string) Stat {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.stats[statKey{sessionID, fileID}]; ok {
		return *s
	}
	return Stat{}
}

func (t *Tracker) transition(sessionID, fileID string, apply func(*Stat)) Stat {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := statKey{sessionID, fileID}
	s, ok := t.stats[k]
	if !ok {
		s = &Stat{}
		t.stats[k] = s
	}
	apply(s)
	return *s
}
