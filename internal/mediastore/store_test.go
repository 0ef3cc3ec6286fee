package mediastore

import (
	"testing"

	"airplayhls/internal/playlist"
)

func TestStore_Fresh(t *testing.T) {
	s := New([]string{"http://c/a.m3u8", "http://c/b.m3u8"})
	res := s.Store(0, "#EXTM3U\n#EXTINF:9.0,\nseg.ts\n", playlist.Analyze("#EXTM3U\n#EXTINF:9.0,\nseg.ts\n"))
	if res != ResultStored {
		t.Fatalf("got %v, want ResultStored", res)
	}
	item, ok := s.Resolve(0)
	if !ok || item.Duration != 9.0 {
		t.Fatalf("unexpected resolve: %+v ok=%v", item, ok)
	}
}

func TestStore_OutOfRange(t *testing.T) {
	s := New([]string{"http://c/a.m3u8"})
	if res := s.Store(5, "x", playlist.Analysis{}); res != ResultOutOfRange {
		t.Fatalf("got %v, want ResultOutOfRange", res)
	}
}

func TestStore_AlreadyStored(t *testing.T) {
	s := New([]string{"http://c/a.m3u8"})
	s.Store(0, "body", playlist.Analysis{})
	if res := s.Store(0, "body2", playlist.Analysis{}); res != ResultAlreadyStored {
		t.Fatalf("got %v, want ResultAlreadyStored", res)
	}
}

func TestStore_Duplicate(t *testing.T) {
	s := New([]string{"http://c/a.m3u8", "http://c/a.m3u8"})
	if res := s.Store(0, "body", playlist.Analysis{Count: 1}); res != ResultStored {
		t.Fatalf("first store: got %v", res)
	}
	if res := s.Store(1, "body", playlist.Analysis{Count: 1}); res != ResultDuplicate {
		t.Fatalf("second store: got %v, want ResultDuplicate", res)
	}
	item, ok := s.Resolve(1)
	if !ok || item.Count != 1 {
		t.Fatalf("resolve through alias failed: %+v ok=%v", item, ok)
	}
}

func TestStore_DuplicateBodyMismatchRejected(t *testing.T) {
	s := New([]string{"http://c/a.m3u8", "http://c/a.m3u8"})
	s.Store(0, "body-one", playlist.Analysis{})
	if res := s.Store(1, "body-two", playlist.Analysis{}); res != ResultMalformedResponse {
		t.Fatalf("got %v, want ResultMalformedResponse", res)
	}
}

func TestLookup(t *testing.T) {
	s := New([]string{"http://c/path/a.m3u8", "http://c/path/b.m3u8"})
	s.Store(0, "playlist-a", playlist.Analysis{})
	item, ok := s.Lookup("a.m3u8")
	if !ok || item.Playlist != "playlist-a" {
		t.Fatalf("lookup failed: %+v ok=%v", item, ok)
	}
}

func TestAllFetched(t *testing.T) {
	s := New([]string{"http://c/a.m3u8", "http://c/b.m3u8"})
	if s.AllFetched() {
		t.Fatalf("expected not all fetched")
	}
	s.Store(0, "x", playlist.Analysis{})
	s.Store(1, "y", playlist.Analysis{})
	if !s.AllFetched() {
		t.Fatalf("expected all fetched")
	}
}
