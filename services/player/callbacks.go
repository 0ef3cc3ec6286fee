// Package player defines the capability surface a Session uses to drive the
// local media player (spec.md §4.G), replacing the reference
// implementation's opaque void* client pointer with a tagged Go interface
// (spec.md §9 design note).
package player

import "context"

// PlaybackInfo is the struct on_video_acquire_playback_info fills in,
// mirroring spec.md §4.F's /playback-info response fields.
type PlaybackInfo struct {
	Duration               float64
	Position               float64
	Rate                   float64
	ReadyToPlay            bool
	PlaybackBufferEmpty    bool
	PlaybackBufferFull     bool
	PlaybackLikelyToKeepUp bool
	SeekStart              float64
	SeekDuration           float64
}

// TeardownFlags is returned by conn_teardown.
type TeardownFlags struct {
	Disconnect bool
}

// ResetReason values passed to video_reset.
type ResetReason int

const (
	ResetHLSShutdown ResetReason = iota
)

// ResetCause values passed to conn_reset.
type ResetCause int

const (
	ResetCauseUnsupportedContentLocation ResetCause = 2
)

// Callbacks is the capability set a Session invokes to drive the local
// player, exactly the method set in spec.md §4.G.
type Callbacks interface {
	OnVideoPlay(ctx context.Context, location string, startPosition float64)
	OnVideoScrub(ctx context.Context, position float64)
	OnVideoRate(ctx context.Context, rate float64)
	OnVideoStop(ctx context.Context)
	OnVideoAcquirePlaybackInfo(ctx context.Context) PlaybackInfo
	OnVideoPlaylistRemove(ctx context.Context) (lastPosition float64)
	VideoReset(ctx context.Context, reason ResetReason)
	ConnReset(ctx context.Context, cause ResetCause)
	ConnTeardown(ctx context.Context) TeardownFlags
}
