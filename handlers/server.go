// Package handlers implements the forward-HTTP protocol endpoints of the
// AirPlay HLS video session subsystem (spec.md §4.F), routed with
// github.com/gorilla/mux, the same router the teacher wires its admin API
// through in main.go.
package handlers

import (
	"sync"

	"github.com/gorilla/mux"

	"airplayhls/internal/fcup"
	"airplayhls/internal/localhls"
	"airplayhls/internal/logging"
	"airplayhls/internal/registry"
	"airplayhls/internal/resumestore"
	"airplayhls/services/player"
)

// reverseSender is the narrow capability handlers need from an upgraded
// PTTH connection: fcup.ReverseSender plus the ability to close it when
// superseded by a new upgrade. internal/reverseconn.Conn implements it;
// tests substitute a fake.
type reverseSender interface {
	fcup.ReverseSender
	Close() error
}

// ServerInfo holds the fixed identity fields GET /server-info reports
// (spec.md §4.F, §6).
type ServerInfo struct {
	MacAddress     string
	Model          string
	OSBuildVersion string
	ProtoVers      string
	SrcVers        string
	VV             int
	DeviceID       string
}

// DefaultServerInfo returns the identity fields a fresh install reports.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		MacAddress:     "00:00:00:00:00:00",
		Model:          "AppleTV3,2",
		OSBuildVersion: "12B435",
		ProtoVers:      "1.0",
		SrcVers:        "220.68",
		VV:             2,
		DeviceID:       "00:00:00:00:00:00",
	}
}

// FeatureBits is the fixed features value spec.md §4.F/§6 requires: bits
// 0-6 and 9 set (video, photo, FairPlay, volume, HLS, slideshow, bit 6,
// audio).
const FeatureBits = 0x27F

// Server holds everything the protocol handlers share: the session
// registry, the injected logger, the FCUP issuer, the optional durable
// resume store, the player callback capability, and per-connection reverse
// upgrade bookkeeping.
type Server struct {
	Registry         *registry.Registry
	Log              *logging.Logger
	Issuer           *fcup.Issuer
	Resume           *resumestore.Store // nil when disabled
	Callbacks        player.Callbacks
	Info             ServerInfo
	ClientPrefixHost string // expected scheme+host clients address this server as; no handler reads it

	localMu sync.Mutex
	local   map[int]*localhls.Server // slot index -> local HLS listener

	reverseMu     sync.Mutex
	upgradedConns map[string]bool
	activeReverse reverseSender
}

// New constructs a Server and subscribes it to reg's eviction notifications,
// so a slot evicted by ad-pruning, wrap-around capacity eviction, or the
// background sweep — not just a same-request rollback — always tears down
// that slot's local HLS listener instead of leaving it bound to a destroyed
// session.
func New(reg *registry.Registry, log *logging.Logger, issuer *fcup.Issuer, resume *resumestore.Store, callbacks player.Callbacks, info ServerInfo) *Server {
	s := &Server{
		Registry:      reg,
		Log:           log,
		Issuer:        issuer,
		Resume:        resume,
		Callbacks:     callbacks,
		Info:          info,
		local:         make(map[int]*localhls.Server),
		upgradedConns: make(map[string]bool),
	}
	reg.SetEvictionHook(s.dropLocalHLS)
	return s
}

// Router builds the gorilla/mux router serving every endpoint in spec.md §6.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/server-info", s.ServerInfo).Methods("GET")
	r.HandleFunc("/scrub", s.Scrub).Methods("POST")
	r.HandleFunc("/rate", s.Rate).Methods("POST")
	r.HandleFunc("/stop", s.Stop).Methods("POST")
	r.HandleFunc("/setProperty", s.SetProperty).Methods("PUT")
	r.HandleFunc("/getProperty", s.GetProperty).Methods("GET")
	r.HandleFunc("/fp-setup2", s.FPSetup2).Methods("POST")
	r.HandleFunc("/reverse", s.Reverse).Methods("POST")
	r.HandleFunc("/play", s.Play).Methods("POST")
	r.HandleFunc("/action", s.Action).Methods("POST")
	r.HandleFunc("/playback-info", s.PlaybackInfo).Methods("GET")
	return r
}

// ensureLocalHLS starts (idempotently) the per-session local HLS listener
// for the session at slot index.
func (s *Server) ensureLocalHLS(index int) {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	if _, ok := s.local[index]; ok {
		return
	}
	sess := s.Registry.Session(index)
	if sess == nil {
		return
	}
	srv, err := localhls.Start(sess, s.Log)
	if err != nil {
		s.Log.Errorf("handlers: failed to start local hls server for slot %d: %v", index, err)
		return
	}
	s.local[index] = srv
}

// dropLocalHLS stops and forgets the listener for a slot, called when a
// slot is evicted.
func (s *Server) dropLocalHLS(index int) {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	if srv, ok := s.local[index]; ok {
		srv.Close()
		delete(s.local, index)
	}
}
