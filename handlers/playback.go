package handlers

import (
	"io"
	"net/http"
	"strconv"

	"airplayhls/internal/aplist"
	"airplayhls/internal/session"
	"airplayhls/services/player"
)

// currentSession returns the registry's current session, or nil if none is
// active.
func (s *Server) currentSession() *session.Session {
	index := s.Registry.Current()
	if index < 0 {
		return nil
	}
	return s.Registry.Session(index)
}

// propertyName returns the bare query-string key a setProperty/getProperty
// request carries its property name as (e.g. "?selectedMediaArray", with no
// "=value" — the value, if any, travels in the request body).
func propertyName(r *http.Request) string {
	for key := range r.URL.Query() {
		return key
	}
	return ""
}

// Scrub implements POST /scrub?position=<f> (spec.md §4.F).
func (s *Server) Scrub(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.ParseFloat(r.URL.Query().Get("position"), 64)
	if err != nil {
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	if cur := s.currentSession(); cur != nil {
		s.Callbacks.OnVideoScrub(r.Context(), pos)
	}
	writeEmpty(w, http.StatusOK)
}

// Rate implements POST /rate?value=<f> (spec.md §4.F).
func (s *Server) Rate(w http.ResponseWriter, r *http.Request) {
	rate, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	if cur := s.currentSession(); cur != nil {
		s.Callbacks.OnVideoRate(r.Context(), rate)
	}
	writeEmpty(w, http.StatusOK)
}

// Stop implements POST /stop (spec.md §4.F).
func (s *Server) Stop(w http.ResponseWriter, r *http.Request) {
	if cur := s.currentSession(); cur != nil {
		s.Callbacks.OnVideoStop(r.Context())
	}
	writeEmpty(w, http.StatusOK)
}

var noOpSetProperties = map[string]bool{
	"reverseEndTime":  true,
	"forwardEndTime":  true,
	"actionAtItemEnd": true,
}

// SetProperty implements PUT /setProperty?<prop> (spec.md §4.F).
func (s *Server) SetProperty(w http.ResponseWriter, r *http.Request) {
	prop := propertyName(r)
	switch {
	case prop == "selectedMediaArray":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeEmpty(w, http.StatusBadRequest)
			return
		}
		entries, err := aplist.DecodeArray(body)
		if err != nil {
			s.Log.Warnf("setProperty selectedMediaArray: malformed plist: %v", err)
			writeEmpty(w, http.StatusBadRequest)
			return
		}
		cur := s.currentSession()
		if cur == nil {
			writeEmpty(w, http.StatusBadRequest)
			return
		}
		for _, entry := range entries {
			name, nameOK := entry.String("MediaSelectionOptionsName")
			code, codeOK := entry.String("MediaSelectionOptionsUnicodeLanguageIdentifier")
			if nameOK && codeOK {
				cur.SetLanguage(name, code)
				break
			}
		}
		writePlist(w, http.StatusOK, map[string]interface{}{"errorCode": uint64(0)})
	case noOpSetProperties[prop]:
		writePlist(w, http.StatusOK, map[string]interface{}{"errorCode": uint64(0)})
	default:
		s.Log.Warnf("setProperty: rejecting unsupported property %q", prop)
		writeEmpty(w, http.StatusBadRequest)
	}
}

// GetProperty implements GET /getProperty?<prop>: accepted, no-op, logged
// (spec.md §4.F).
func (s *Server) GetProperty(w http.ResponseWriter, r *http.Request) {
	s.Log.Infof("getProperty: %q (no-op)", propertyName(r))
	writeEmpty(w, http.StatusOK)
}

// FPSetup2 implements POST /fp-setup2: only FairPlay v3 is implemented
// (spec.md §4.F).
func (s *Server) FPSetup2(w http.ResponseWriter, r *http.Request) {
	writeEmpty(w, http.StatusMisdirectedRequest)
}

// PlaybackInfo implements GET /playback-info (spec.md §4.F).
func (s *Server) PlaybackInfo(w http.ResponseWriter, r *http.Request) {
	info := s.Callbacks.OnVideoAcquirePlaybackInfo(r.Context())

	if info.Duration == -1.0 {
		s.Log.Infof("playback-info: player reports finished, initiating hls shutdown")
		s.Callbacks.VideoReset(r.Context(), player.ResetHLSShutdown)
		// player_reports_finished ends in disconnect (spec.md error-kind
		// table): tear down the connection the way the original's
		// http_response_set_disconnect(response, 1) does.
		w.Header().Set("Connection", "close")
		writeEmpty(w, http.StatusOK)
		return
	}
	if info.Position == -1.0 {
		writeEmpty(w, http.StatusOK)
		return
	}

	writePlist(w, http.StatusOK, map[string]interface{}{
		"duration":               info.Duration,
		"position":               info.Position,
		"rate":                   info.Rate,
		"readyToPlay":            info.ReadyToPlay,
		"playbackBufferEmpty":    info.PlaybackBufferEmpty,
		"playbackBufferFull":     info.PlaybackBufferFull,
		"playbackLikelyToKeepUp": info.PlaybackLikelyToKeepUp,
		"loadedTimeRanges": []interface{}{
			map[string]interface{}{"start": info.Position, "duration": info.Duration - info.Position},
		},
		"seekableTimeRanges": []interface{}{
			map[string]interface{}{"start": info.SeekStart, "duration": info.SeekDuration},
		},
	})
}
