package handlers

import (
	"io"
	"math"
	"net/http"
	"strings"

	"airplayhls/internal/aplist"
	"airplayhls/services/player"
)

const masterPlaylistSuffix = "/master.m3u8"

// Play implements POST /play (spec.md §4.F).
func (s *Server) Play(w http.ResponseWriter, r *http.Request) {
	appleSessionID := r.Header.Get("X-Apple-Session-ID")
	if appleSessionID == "" {
		s.Log.Warnf("play: missing X-Apple-Session-ID")
		writeEmpty(w, http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	dict, err := aplist.Decode(body)
	if err != nil {
		s.Log.Warnf("play: malformed plist: %v", err)
		writeEmpty(w, http.StatusBadRequest)
		return
	}

	uuid, ok := dict.String("uuid")
	if !ok {
		s.Log.Warnf("play: missing uuid")
		writeEmpty(w, http.StatusBadRequest)
		return
	}

	if index := s.Registry.GetByUUID(uuid); index >= 0 {
		sess := s.Registry.Session(index)
		if err := sess.SetAppleSessionID(appleSessionID); err != nil {
			s.Log.Errorf("play: resume %s: %v", uuid, err)
			writeEmpty(w, http.StatusBadRequest)
			return
		}
		s.Registry.SetCurrent(index)
		s.ensureLocalHLS(index)

		resumePos := sess.ResumePositionSeconds()
		startPos := sess.StartPositionSeconds()
		s.Callbacks.OnVideoPlay(r.Context(), sess.PlaybackLocation(), math.Max(resumePos, startPos))
		writeEmpty(w, http.StatusOK)
		return
	}

	contentLocation, ok := dict.String("Content-Location")
	if !ok || !strings.HasSuffix(contentLocation, masterPlaylistSuffix) {
		s.Log.Warnf("play: unsupported content location %q", contentLocation)
		s.failPlay(w, r)
		return
	}
	if clientProcName, ok := dict.String("clientProcName"); ok && clientProcName != "YouTube;" {
		s.Log.Warnf("play: unexpected clientProcName %q", clientProcName)
	}
	startPos := 0.0
	if v, ok := dict.Real("Start-Position-Seconds"); ok {
		startPos = v
	}

	sess, index := s.Registry.InsertNew()
	s.Registry.SetCurrent(index)
	s.ensureLocalHLS(index)

	if err := sess.SetAppleSessionID(appleSessionID); err != nil {
		s.Log.Errorf("play: %v", err)
		s.Registry.Remove(index)
		s.dropLocalHLS(index)
		s.failPlay(w, r)
		return
	}
	if err := sess.SetPlaybackUUID(uuid); err != nil {
		s.Log.Errorf("play: %v", err)
		s.Registry.Remove(index)
		s.dropLocalHLS(index)
		s.failPlay(w, r)
		return
	}
	uriPrefix := strings.TrimSuffix(contentLocation, masterPlaylistSuffix)
	if err := sess.SetURIPrefix(uriPrefix); err != nil {
		s.Log.Errorf("play: %v", err)
		s.Registry.Remove(index)
		s.dropLocalHLS(index)
		s.failPlay(w, r)
		return
	}
	sess.SetStartPositionSeconds(startPos)

	if s.Resume != nil {
		if pos, found, err := s.Resume.Get(uuid); err != nil {
			s.Log.Warnf("play: resume store lookup for %s: %v", uuid, err)
		} else if found {
			sess.SetResumePositionSeconds(pos)
		}
	}

	sender := s.activeReverseSender()
	if sender == nil {
		s.Log.Warnf("play: no reverse channel established, cannot issue fcup request")
		s.Registry.Remove(index)
		s.dropLocalHLS(index)
		s.failPlay(w, r)
		return
	}
	if _, err := s.Issuer.Request(r.Context(), sender, sess, contentLocation); err != nil {
		s.Log.Errorf("play: fcup request failed: %v", err)
		s.Registry.Remove(index)
		s.dropLocalHLS(index)
		s.failPlay(w, r)
		return
	}

	writeEmpty(w, http.StatusOK)
}

func (s *Server) activeReverseSender() reverseSender {
	s.reverseMu.Lock()
	defer s.reverseMu.Unlock()
	return s.activeReverse
}

// failPlay responds 400 and runs the "mark disconnect, conn_reset(cause=2)"
// failure path spec.md §4.F step 7 requires: the connection itself is torn
// down (the idiomatic net/http equivalent of the original's
// http_response_set_disconnect(response, 1)), and conn_reset fires.
func (s *Server) failPlay(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Connection", "close")
	writeEmpty(w, http.StatusBadRequest)
	s.Callbacks.ConnReset(r.Context(), player.ResetCauseUnsupportedContentLocation)
}
