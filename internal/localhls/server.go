// Package localhls serves the rewritten master playlist and fetched media
// playlists to the local media player, per spec.md §4.F's "Local HLS
// channel". Each session owns one of these servers, bound to the port
// baked into its local_uri_prefix (spec.md §4.C construction), mirroring
// the teacher's per-session throttling proxy pattern in handlers/hls.go
// (one net/http.Server per session, started and torn down with it).
package localhls

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"airplayhls/internal/logging"
	"airplayhls/internal/playlist"
	"airplayhls/internal/session"
)

// Server is one session's local HLS listener.
type Server struct {
	sess   *session.Session
	log    *logging.Logger
	server *http.Server
}

// Start binds a listener on the port encoded in sess's local_uri_prefix and
// begins serving in the background. Returns an error only if the port
// cannot be bound; a bind failure here is the Go-native analogue of
// spec.md §9's "allocation_failure" design note — propagated as an error
// instead of aborting the process.
func Start(sess *session.Session, log *logging.Logger) (*Server, error) {
	port, err := portFromPrefix(sess.LocalURIPrefix())
	if err != nil {
		return nil, fmt.Errorf("localhls: %w", err)
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("localhls: listen on %d: %w", port, err)
	}

	s := &Server{sess: sess, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	s.server = &http.Server{Handler: mux}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("localhls: session port %d: serve: %v", port, err)
		}
	}()
	return s, nil
}

// Close shuts down the listener. Called when the owning session is evicted
// or destroyed.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-mpegURL; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-type")
	w.Header().Set("Date", time.Now().UTC().Format(http.TimeFormat))

	if r.URL.Path == "/" || r.URL.Path == "/master.m3u8" {
		master := s.sess.MasterPlaylist()
		if master == "" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(master))
		return
	}

	store := s.sess.MediaStore()
	if store == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	item, ok := store.Lookup(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok || item.Playlist == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	expanded, err := playlist.ExpandCondensedURI(item.Playlist)
	if err != nil {
		s.log.Warnf("localhls: condensed expansion failed for %s: %v", r.URL.Path, err)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Write([]byte(expanded))
}

// portFromPrefix extracts the port number baked into "http://localhost:PORT".
func portFromPrefix(prefix string) (int, error) {
	idx := strings.LastIndexByte(prefix, ':')
	if idx < 0 {
		return 0, fmt.Errorf("malformed local uri prefix %q", prefix)
	}
	var port int
	if _, err := fmt.Sscanf(prefix[idx+1:], "%d", &port); err != nil {
		return 0, fmt.Errorf("malformed port in local uri prefix %q: %w", prefix, err)
	}
	return port, nil
}
