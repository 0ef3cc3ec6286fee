// Package registry implements the fixed-capacity session slot table
// (spec.md §4.D): lookup by playback UUID, capacity-bounded insertion with
// advertisement pruning and wrap-around eviction, and current-session
// tracking.
package registry

import (
	"sync"

	"airplayhls/internal/session"
)

// DefaultCapacity is the fixed slot count from spec.md §3 ("capacity = 10").
const DefaultCapacity = 10

// Registry is the session slot table. A single coarse mutex guards it, per
// spec.md §5's locking discipline (registry lock, then session lock, never
// the reverse).
type Registry struct {
	mu sync.Mutex

	capacity      int
	adMaxDuration float64
	localPortBase int
	lang          string
	slots         []*session.Session
	current       int
	writeCursor   int
	onEvict       func(index int)
}

// New builds a Registry with the given capacity, advertisement duration
// threshold (spec.md §3: sessions under this duration are evictable ads),
// the first local HLS port handed to slot 0 (slot i gets localPortBase+i),
// and the operator's colon-separated preferred-language list handed to
// every Session it constructs.
func New(capacity int, adMaxDurationSeconds float64, localPortBase int, lang string) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity:      capacity,
		adMaxDuration: adMaxDurationSeconds,
		localPortBase: localPortBase,
		lang:          lang,
		slots:         make([]*session.Session, capacity),
		current:       -1,
		writeCursor:   -1,
	}
}

// Capacity returns the fixed slot count.
func (r *Registry) Capacity() int {
	return r.capacity
}

// GetByUUID returns the slot index holding playbackUUID, or -1.
func (r *Registry) GetByUUID(playbackUUID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getByUUIDLocked(playbackUUID)
}

func (r *Registry) getByUUIDLocked(playbackUUID string) int {
	for i, s := range r.slots {
		if s != nil && s.PlaybackUUID() == playbackUUID {
			return i
		}
	}
	return -1
}

// Session returns the session at index, or nil if the slot is empty or
// index is out of range.
func (r *Registry) Session(index int) *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.slots) {
		return nil
	}
	return r.slots[index]
}

// Current returns the current slot index, or -1 if none is active.
func (r *Registry) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// SetCurrent reassigns the current slot index.
func (r *Registry) SetCurrent(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = index
}

// SetEvictionHook registers fn to be called, outside the registry's own
// lock, with the index of every slot evictLocked clears — from ad pruning,
// wrap-around eviction, or an explicit Remove. handlers.Server subscribes
// with this to drop the per-slot local HLS listener whenever the session it
// was serving is destroyed, including eviction of a slot it isn't currently
// handling a request for.
func (r *Registry) SetEvictionHook(fn func(index int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = fn
}

// pruneAdsLocked evicts every occupied slot whose stored duration is below
// the advertisement threshold, per spec.md §4.D "Before insertion, prune
// all slots whose session duration < 90 s (advertisements)." It returns the
// indices it evicted so callers can notify the eviction hook after
// unlocking.
func (r *Registry) pruneAdsLocked() []int {
	var evicted []int
	for i, s := range r.slots {
		if s == nil {
			continue
		}
		if s.Duration() > 0 && s.Duration() < r.adMaxDuration {
			r.evictLocked(i)
			evicted = append(evicted, i)
		}
	}
	return evicted
}

func (r *Registry) evictLocked(index int) {
	if s := r.slots[index]; s != nil {
		s.Destroy()
	}
	r.slots[index] = nil
	if r.current == index {
		r.current = -1
	}
}

func (r *Registry) occupiedLocked() int {
	n := 0
	for _, s := range r.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// notifyEvicted invokes the eviction hook, if any, for each evicted index.
// Callers must not hold r.mu: the hook runs handlers.Server's own locked
// code, and spec.md §5's locking discipline never lets the registry lock be
// held while acquiring another component's lock.
func (r *Registry) notifyEvicted(indices []int) {
	if r.onEvict == nil {
		return
	}
	for _, i := range indices {
		r.onEvict(i)
	}
}

// PruneAdvertisements evicts every occupied slot whose stored duration is
// below the advertisement threshold. insert_new already does this
// synchronously before every allocation; this is the opportunistic
// background sweep between plays (spec.md §4.D background sweep), so a
// long-idle ad slot doesn't sit occupying capacity until the next /play.
func (r *Registry) PruneAdvertisements() {
	r.mu.Lock()
	evicted := r.pruneAdsLocked()
	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// InsertNew allocates a new Session, per spec.md §4.D "insert_new": prune
// advertisements, then use the first empty slot. If insertion fills every
// slot, proactively evict the slot at (index+1) % capacity — "ensure that
// space will always be available for adding future playlists" — so the
// registry never sits at capacity for more than the duration of a single
// /play. If no slot is empty after ad-pruning (not expected: the proactive
// eviction leaves one slot free after every insert), fall back to evicting
// the slot after the write cursor rather than refusing the insert.
func (r *Registry) InsertNew() (*session.Session, int) {
	r.mu.Lock()

	evicted := r.pruneAdsLocked()

	index := -1
	for i, s := range r.slots {
		if s == nil {
			index = i
			break
		}
	}
	if index == -1 {
		index = (r.writeCursor + 1) % r.capacity
		r.evictLocked(index)
		evicted = append(evicted, index)
	}

	sess := session.New(r.localPortBase+index, r.lang)
	r.slots[index] = sess
	r.writeCursor = index

	if r.occupiedLocked() == r.capacity {
		next := (index + 1) % r.capacity
		r.evictLocked(next)
		evicted = append(evicted, next)
	}

	r.mu.Unlock()
	r.notifyEvicted(evicted)
	return sess, index
}

// Remove destroys and clears the slot at index.
func (r *Registry) Remove(index int) {
	r.mu.Lock()
	if index < 0 || index >= len(r.slots) {
		r.mu.Unlock()
		return
	}
	r.evictLocked(index)
	r.mu.Unlock()
	r.notifyEvicted([]int{index})
}

// Occupied reports how many slots currently hold a session.
func (r *Registry) Occupied() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupiedLocked()
}
