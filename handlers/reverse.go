package handlers

import (
	"bufio"
	"net/http"

	"airplayhls/internal/conntag"
	"airplayhls/internal/reverseconn"
)

// Reverse implements POST /reverse: upgrade the connection to PTTH/1.0
// (spec.md §4.F). Enforces a single upgrade per forward connection
// (spec.md §8 scenario 6).
func (s *Server) Reverse(w http.ResponseWriter, r *http.Request) {
	tag := conntag.FromContext(r.Context())

	s.reverseMu.Lock()
	if tag != "" && s.upgradedConns[tag] {
		s.reverseMu.Unlock()
		s.Log.Warnf("reverse: rejecting duplicate upgrade on connection %s", tag)
		writeEmpty(w, http.StatusConflict)
		return
	}
	if tag != "" {
		s.upgradedConns[tag] = true
	}
	s.reverseMu.Unlock()

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		s.Log.Errorf("reverse: response writer does not support hijacking")
		writeEmpty(w, http.StatusInternalServerError)
		return
	}
	raw, buf, err := hijacker.Hijack()
	if err != nil {
		s.Log.Errorf("reverse: hijack failed: %v", err)
		writeEmpty(w, http.StatusInternalServerError)
		return
	}

	if _, err := buf.WriteString("HTTP/1.1 101 Switching Protocols\r\nConnection: Upgrade\r\nUpgrade: PTTH/1.0\r\n\r\n"); err != nil {
		s.Log.Errorf("reverse: failed to write upgrade response: %v", err)
		raw.Close()
		return
	}
	if err := buf.Flush(); err != nil {
		s.Log.Errorf("reverse: failed to flush upgrade response: %v", err)
		raw.Close()
		return
	}

	conn := reverseconn.New(raw, bufio.NewWriter(raw))

	s.reverseMu.Lock()
	if s.activeReverse != nil {
		s.activeReverse.Close()
	}
	s.activeReverse = conn
	s.reverseMu.Unlock()

	s.Log.Infof("reverse: connection %s upgraded to PTTH/1.0", tag)
}
