package player

import (
	"context"

	"airplayhls/internal/logging"
)

// LoggingCallbacks is the default Callbacks implementation: it logs every
// invocation and returns zero values, except that OnVideoAcquirePlaybackInfo
// reports Duration -1 (the "player finished" sentinel) and ConnTeardown
// reports Disconnect. It stands in for the native player
// process this subsystem drives over IPC in the reference receiver — that
// process is an external collaborator (spec.md §1) this module was never
// asked to reimplement, so LoggingCallbacks is the seam an integrator
// replaces with a real adapter to their player.
type LoggingCallbacks struct {
	Log *logging.Logger
}

// NewLoggingCallbacks returns a LoggingCallbacks bound to log.
func NewLoggingCallbacks(log *logging.Logger) *LoggingCallbacks {
	return &LoggingCallbacks{Log: log}
}

func (c *LoggingCallbacks) OnVideoPlay(ctx context.Context, location string, startPosition float64) {
	c.Log.Infof("player: on_video_play location=%s start=%.3f", location, startPosition)
}

func (c *LoggingCallbacks) OnVideoScrub(ctx context.Context, position float64) {
	c.Log.Infof("player: on_video_scrub position=%.3f", position)
}

func (c *LoggingCallbacks) OnVideoRate(ctx context.Context, rate float64) {
	c.Log.Infof("player: on_video_rate rate=%.3f", rate)
}

func (c *LoggingCallbacks) OnVideoStop(ctx context.Context) {
	c.Log.Infof("player: on_video_stop")
}

func (c *LoggingCallbacks) OnVideoAcquirePlaybackInfo(ctx context.Context) PlaybackInfo {
	c.Log.Debugf("player: on_video_acquire_playback_info (no player attached, reporting idle)")
	return PlaybackInfo{Duration: -1}
}

func (c *LoggingCallbacks) OnVideoPlaylistRemove(ctx context.Context) float64 {
	c.Log.Infof("player: on_video_playlist_remove")
	return 0
}

func (c *LoggingCallbacks) VideoReset(ctx context.Context, reason ResetReason) {
	c.Log.Infof("player: video_reset reason=%d", reason)
}

func (c *LoggingCallbacks) ConnReset(ctx context.Context, cause ResetCause) {
	c.Log.Warnf("player: conn_reset cause=%d", cause)
}

func (c *LoggingCallbacks) ConnTeardown(ctx context.Context) TeardownFlags {
	c.Log.Infof("player: conn_teardown")
	return TeardownFlags{Disconnect: true}
}
