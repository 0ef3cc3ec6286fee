package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"airplayhls/internal/aplist"
	"airplayhls/internal/apperror"
	"airplayhls/internal/mediastore"
	"airplayhls/internal/playlist"
	"airplayhls/internal/session"
)

// Action implements POST /action (spec.md §4.F).
func (s *Server) Action(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	dict, err := aplist.Decode(body)
	if err != nil {
		s.Log.Warnf("action: malformed plist: %v", err)
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	actionType, ok := dict.String("type")
	if !ok {
		s.Log.Warnf("action: missing type field")
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	params, _ := dict.Dict("params")

	switch actionType {
	case "playlistRemove":
		s.actionPlaylistRemove(w, r, params)
	case "playlistInsert":
		s.Log.Infof("action: playlistInsert accepted (unimplemented, no-op)")
		writeEmpty(w, http.StatusOK)
	case "unhandledURLResponse":
		s.actionUnhandledURLResponse(w, r, params)
	default:
		s.Log.Warnf("action: unrecognized type %q", actionType)
		writeEmpty(w, http.StatusBadRequest)
	}
}

func (s *Server) actionPlaylistRemove(w http.ResponseWriter, r *http.Request, params aplist.Dict) {
	item, ok := params.Dict("item")
	if !ok {
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	uuid, ok := item.String("uuid")
	if !ok {
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	index := s.Registry.GetByUUID(uuid)
	if index < 0 {
		s.Log.Warnf("action: playlistRemove for unknown uuid %s", uuid)
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	sess := s.Registry.Session(index)
	if s.Registry.Current() == index {
		s.Registry.SetCurrent(-1)
	}
	lastPosition := s.Callbacks.OnVideoPlaylistRemove(r.Context())
	sess.SetResumePositionSeconds(lastPosition)
	if s.Resume != nil {
		if err := s.Resume.Set(uuid, lastPosition); err != nil {
			s.Log.Warnf("action: persisting resume position for %s: %v", uuid, err)
		}
	}
	writeEmpty(w, http.StatusOK)
}

func (s *Server) actionUnhandledURLResponse(w http.ResponseWriter, r *http.Request, params aplist.Dict) {
	sess := s.currentSession()
	if sess == nil {
		s.Log.Warnf("action: unhandledURLResponse with no current session")
		writeEmpty(w, http.StatusBadRequest)
		return
	}

	url, ok := params.String("FCUP_Response_URL")
	if !ok {
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	data, ok := params.Bytes("FCUP_Response_Data")
	if !ok {
		writeEmpty(w, http.StatusBadRequest)
		return
	}

	// mimetype reports "#EXTM3U" bodies as application/vnd.apple.mpegurl
	// rather than text/*, so that type is accepted alongside text.
	if mtype := mimetype.Detect(data); !strings.HasPrefix(mtype.String(), "text/") && !mtype.Is("application/vnd.apple.mpegurl") {
		s.Log.Warnf("action: unhandledURLResponse for %s: rejecting non-text body (%s)", url, mtype.String())
		writeEmpty(w, apperror.KindMalformedResponse.HTTPStatus())
		return
	}
	text := string(data)

	if strings.HasSuffix(url, masterPlaylistSuffix) {
		s.handleMasterResponse(w, r, sess, text)
		return
	}
	s.handleMediaResponse(w, r, sess, text)
}

func (s *Server) handleMasterResponse(w http.ResponseWriter, r *http.Request, sess *session.Session, masterText string) {
	name, _ := sess.Language()
	sliced, languageName, languageCode, err := playlist.SliceMasterLanguages(masterText, name, sess.Lang())
	if err != nil {
		s.Log.Warnf("action: master language slicing failed: %v", err)
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	sess.SetLanguage(languageName, languageCode)

	uris, err := playlist.URITable(sliced, sess.URIPrefix())
	if err != nil {
		s.Log.Warnf("action: uri table extraction failed: %v", err)
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	rewritten, _, err := playlist.RewriteMasterURIs(sliced, sess.URIPrefix(), sess.LocalURIPrefix())
	if err != nil {
		s.Log.Warnf("action: master uri rewrite failed: %v", err)
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	// The store keeps the client's original URIs: these are what FCUP
	// fetches by, and the local player's requests still substring-match
	// them on filename since only the prefix differs from the rewritten
	// master we serve it.
	store := mediastore.New(uris)
	sess.SetMasterPlaylist(rewritten, store)

	s.issueNextOrPlay(r, sess, uris)
	writeEmpty(w, http.StatusOK)
}

func (s *Server) handleMediaResponse(w http.ResponseWriter, r *http.Request, sess *session.Session, playlistText string) {
	// next_uri_index was already post-incremented when the fetch for it was
	// issued, so the response we're receiving now belongs at index-1
	// (spec.md §4.F).
	index := sess.NextURIIndex() - 1

	analysis := playlist.Analyze(playlistText)
	store := sess.MediaStore()
	if store == nil {
		s.Log.Warnf("action: media response with no media store (index %d)", index)
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	switch store.Store(index, playlistText, analysis) {
	case mediastore.ResultMalformedResponse:
		s.Log.Warnf("action: duplicate uri at index %d returned a differing body", index)
		writeEmpty(w, apperror.KindMalformedResponse.HTTPStatus())
		return
	case mediastore.ResultOutOfRange:
		s.Log.Warnf("action: media response index %d out of range", index)
		writeEmpty(w, http.StatusBadRequest)
		return
	}

	uris := make([]string, store.Len())
	for i := range uris {
		uris[i], _ = store.URI(i)
	}
	s.issueNextOrPlay(r, sess, uris)
	writeEmpty(w, http.StatusOK)
}

// issueNextOrPlay issues the next pending FCUP request, or invokes
// on_video_play once every media playlist has been fetched (spec.md §4.F).
func (s *Server) issueNextOrPlay(r *http.Request, sess *session.Session, uris []string) {
	next := sess.NextURIIndex()
	if next < len(uris) {
		sender := s.activeReverseSender()
		if sender == nil {
			s.Log.Warnf("action: no reverse channel established, cannot issue next fcup request")
			return
		}
		sess.AdvanceURIIndex()
		if _, err := s.Issuer.Request(r.Context(), sender, sess, uris[next]); err != nil {
			s.Log.Errorf("action: fcup request for index %d failed: %v", next, err)
		}
		return
	}
	s.Callbacks.OnVideoPlay(r.Context(), sess.PlaybackLocation(), sess.StartPositionSeconds())
}
