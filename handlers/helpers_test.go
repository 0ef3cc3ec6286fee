package handlers

import (
	"context"
	"sync"

	"airplayhls/internal/logging"
	"airplayhls/internal/registry"
	"airplayhls/services/player"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: "debug"})
}

func testRegistry() *registry.Registry {
	return registry.New(registry.DefaultCapacity, 90, 40000, "en")
}

// fakeCallbacks records every invocation so tests can assert on call order
// and arguments without a real player process.
type fakeCallbacks struct {
	mu sync.Mutex

	plays     []playCall
	scrubs    []float64
	rates     []float64
	stops     int
	playlistRemoves int
	resets    []player.ResetCause
	videoResets []player.ResetReason

	playbackInfo player.PlaybackInfo
	removeLastPosition float64
}

type playCall struct {
	location      string
	startPosition float64
}

func (f *fakeCallbacks) OnVideoPlay(ctx context.Context, location string, startPosition float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, playCall{location, startPosition})
}

func (f *fakeCallbacks) OnVideoScrub(ctx context.Context, position float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrubs = append(f.scrubs, position)
}

func (f *fakeCallbacks) OnVideoRate(ctx context.Context, rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates = append(f.rates, rate)
}

func (f *fakeCallbacks) OnVideoStop(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeCallbacks) OnVideoAcquirePlaybackInfo(ctx context.Context) player.PlaybackInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playbackInfo
}

func (f *fakeCallbacks) OnVideoPlaylistRemove(ctx context.Context) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlistRemoves++
	return f.removeLastPosition
}

func (f *fakeCallbacks) VideoReset(ctx context.Context, reason player.ResetReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoResets = append(f.videoResets, reason)
}

func (f *fakeCallbacks) ConnReset(ctx context.Context, cause player.ResetCause) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, cause)
}

func (f *fakeCallbacks) ConnTeardown(ctx context.Context) player.TeardownFlags {
	return player.TeardownFlags{}
}

// fakeSender stands in for an upgraded PTTH connection in tests: it records
// every sent event instead of writing to a real socket.
type fakeSender struct {
	mu     sync.Mutex
	events []fakeEvent
	closed bool
}

type fakeEvent struct {
	contentType string
	body        []byte
}

func (f *fakeSender) SendEvent(ctx context.Context, contentType string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fakeEvent{contentType, body})
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
