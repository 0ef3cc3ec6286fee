// Package session implements the AirplayVideo session (spec.md §4.C): one
// playback session's mutable state, guarded by its own mutex per the
// locking discipline in spec.md §5 (registry lock, then session lock, never
// the reverse).
package session

import (
	"fmt"
	"sync"
	"time"

	"airplayhls/internal/mediastore"
)

// Session is one AirplayVideo playback session.
type Session struct {
	mu sync.RWMutex

	appleSessionID string
	playbackUUID   string
	uriPrefixSet   bool
	uriPrefix      string

	localURIPrefix   string
	playbackLocation string

	languageName string
	languageCode string
	lang         string // operator preference list, borrowed/read-only

	startPositionSeconds  float64
	resumePositionSeconds float64

	fcupRequestID int
	nextURIIndex  int

	masterPlaylist string
	mediaStore     *mediastore.Store

	createdAt  time.Time
	lastActive time.Time
	destroyed  bool
}

// New constructs a Session bound to the local HTTP server port assigned by
// the registry slot that will hold it, and the operator's preferred-language
// list (spec.md §4.C "Construction takes the registry slot's local HTTP
// port and the operator lang string").
func New(localPort int, lang string) *Session {
	now := time.Now()
	local := fmt.Sprintf("http://localhost:%d", localPort)
	return &Session{
		localURIPrefix:   local,
		playbackLocation: local + "/master.m3u8",
		lang:             lang,
		createdAt:        now,
		lastActive:       now,
	}
}

// SetAppleSessionID replaces the Apple session ID; called both on the
// initial /play and on every subsequent resume (spec.md §3: "may be
// replaced on resume").
func (s *Session) SetAppleSessionID(id string) error {
	if len(id) != 36 {
		return fmt.Errorf("apple session id must be 36 bytes, got %d", len(id))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appleSessionID = id
	s.lastActive = time.Now()
	return nil
}

func (s *Session) AppleSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appleSessionID
}

// SetPlaybackUUID sets the playback UUID exactly once; it is immutable once
// set (spec.md §3).
func (s *Session) SetPlaybackUUID(id string) error {
	if len(id) != 36 {
		return fmt.Errorf("playback uuid must be 36 bytes, got %d", len(id))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playbackUUID != "" {
		return fmt.Errorf("playback uuid already set")
	}
	s.playbackUUID = id
	return nil
}

func (s *Session) PlaybackUUID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playbackUUID
}

// SetURIPrefix sets the client-supplied URI prefix exactly once; immutable
// after set (spec.md §3).
func (s *Session) SetURIPrefix(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uriPrefixSet {
		return fmt.Errorf("uri prefix already set")
	}
	s.uriPrefix = prefix
	s.uriPrefixSet = true
	return nil
}

func (s *Session) URIPrefix() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uriPrefix
}

func (s *Session) LocalURIPrefix() string {
	// immutable since construction; no lock needed.
	return s.localURIPrefix
}

func (s *Session) PlaybackLocation() string {
	// immutable since construction; no lock needed.
	return s.playbackLocation
}

// SetLanguage updates the current audio language selection.
func (s *Session) SetLanguage(name, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languageName = name
	s.languageCode = code
}

func (s *Session) Language() (name, code string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.languageName, s.languageCode
}

func (s *Session) Lang() string {
	// borrowed/read-only for the lifetime of the session.
	return s.lang
}

func (s *Session) SetStartPositionSeconds(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startPositionSeconds = v
}

func (s *Session) StartPositionSeconds() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startPositionSeconds
}

func (s *Session) SetResumePositionSeconds(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumePositionSeconds = v
}

func (s *Session) ResumePositionSeconds() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resumePositionSeconds
}

// NextFCUPRequestID increments fcup_request_id before returning it, per
// spec.md §3 ("incremented before each FCUP request. Initial 0.").
func (s *Session) NextFCUPRequestID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fcupRequestID++
	return s.fcupRequestID
}

// NextURIIndex returns the index of the next media URI to fetch.
func (s *Session) NextURIIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextURIIndex
}

// SetNextURIIndex sets next_uri_index, e.g. to 0 when a new master arrives.
func (s *Session) SetNextURIIndex(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextURIIndex = v
}

// AdvanceURIIndex increments next_uri_index and returns the new value,
// preserving the monotonic-nondecreasing invariant in spec.md §8.
func (s *Session) AdvanceURIIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextURIIndex++
	return s.nextURIIndex
}

// SetMasterPlaylist stores the language-filtered, URI-rewritten master text
// and resets the media store and fetch cursor for it (spec.md §4.F
// "unhandledURLResponse" master-playlist branch).
func (s *Session) SetMasterPlaylist(text string, store *mediastore.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterPlaylist = text
	s.mediaStore = store
	s.nextURIIndex = 0
}

func (s *Session) MasterPlaylist() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.masterPlaylist
}

// MediaStore returns the session's media store, or nil if no master has
// been stored yet.
func (s *Session) MediaStore() *mediastore.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mediaStore
}

// Duration reports the session's stored media duration, used by the
// registry to identify advertisement sessions (spec.md §3 invariant: a
// session whose stored duration is below 90 seconds is an advertisement).
// It is the duration of the first fetched media item, which for a single
// program stream is the whole program's length.
func (s *Session) Duration() float64 {
	s.mu.RLock()
	store := s.mediaStore
	s.mu.RUnlock()
	if store == nil || store.Len() == 0 {
		return 0
	}
	item, ok := store.Resolve(0)
	if !ok {
		return 0
	}
	return item.Duration
}

func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Destroy releases the session's owned state. In the reference
// implementation this frees manually-managed C strings; here it simply
// clears references so a destroyed session can be detected and its media
// store dropped for GC, matching the teacher's explicit CleanupSession
// idiom (handlers/hls.go) rather than relying on scope alone.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterPlaylist = ""
	s.mediaStore = nil
	s.destroyed = true
}

func (s *Session) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}
