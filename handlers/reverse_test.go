package handlers

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"airplayhls/internal/conntag"
)

// TestReverseDuplicateUpgradeRejected covers spec.md §8 scenario 6: the
// request carries a tag stamped the way http.Server.ConnContext stamps one,
// and that tag is already recorded as upgraded. (Reverse does not track
// untagged requests, so the tag has to be stamped here.)
func TestReverseDuplicateUpgradeRejected(t *testing.T) {
	s, _ := newTestServer()
	ctx := conntag.ConnContext(context.Background(), nil)
	s.upgradedConns[conntag.FromContext(ctx)] = true

	req := httptest.NewRequest(http.MethodPost, "/reverse", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	s.Reverse(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestReverseUpgradeSucceeds(t *testing.T) {
	s, _ := newTestServer()
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write([]byte("POST /reverse HTTP/1.1\r\nHost: " + addr + "\r\nContent-Length: 0\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}

	reader := bufio.NewReader(conn)
	status, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.Contains(status, "101") {
		t.Fatalf("status line = %q, want 101 Switching Protocols", status)
	}

	if s.activeReverse == nil {
		t.Fatalf("server did not record an active reverse sender")
	}
}

func TestConntagStampsDistinctTags(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	ctx1 := conntag.ConnContext(context.Background(), c1)
	ctx2 := conntag.ConnContext(context.Background(), c2)

	tag1 := conntag.FromContext(ctx1)
	tag2 := conntag.FromContext(ctx2)
	if tag1 == "" || tag2 == "" || tag1 == tag2 {
		t.Fatalf("tags = %q, %q, want distinct non-empty values", tag1, tag2)
	}
}
