package review

import "sync"

// inflightRegistry serializes analysis runs per (document, stage) pair.
// A second request for a pair that is already running is rejected, not
// queued; callers retry manually.
type inflightRegistry struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{
		running: make(map[string]struct{}),
	}
}

// acquire marks the pair as running. Returns false if it already is.
func (r *inflightRegistry) acquire(documentID, stage string) bool {
	key := documentID + "/" + stage
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.running[key]; busy {
		return false
	}
	r.running[key] = struct{}{}
	return true
}

// release frees the pair for the next run.
func (r *inflightRegistry) release(documentID, stage string) {
	key := documentID + "/" + stage
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, key)
}
