// Package fcup issues FCUP ("fetch content using POST") requests on the
// reverse-HTTP (PTTH/1.0) channel, per spec.md §4.E. Requests are
// fire-and-forget and correlated by a monotonically increasing request ID;
// there is no retry (spec.md §7, §9) — loss terminates the session.
package fcup

import (
	"context"
	"fmt"

	"airplayhls/internal/aplist"
	"airplayhls/internal/session"
)

// ContentType is the header value spec.md §4.E requires on every FCUP body.
const ContentType = "application/x-apple-binary-plist"

// ReverseSender is the narrow capability the core needs from the reverse
// connection the forward connection upgraded to PTTH/1.0 on — the raw
// HTTP/1.1 transport itself stays an external collaborator (spec.md §1).
type ReverseSender interface {
	SendEvent(ctx context.Context, contentType string, body []byte) error
}

// Issuer sends FCUP requests for a session.
type Issuer struct{}

// New returns an Issuer. It is stateless — correlation state lives on the
// Session (fcup_request_id), not here.
func New() *Issuer { return &Issuer{} }

// Request builds and sends one FCUP request for url, returning the request
// ID that was assigned so callers/logs can correlate it with the eventual
// POST /action response.
func (i *Issuer) Request(ctx context.Context, sender ReverseSender, sess *session.Session, url string) (int, error) {
	// Snapshot everything we need under the session's own locking before
	// writing to the socket, per spec.md §5: "FCUP sends do not hold the
	// session mutex during the socket write; they snapshot URL and IDs
	// under the lock then write outside it."
	appleSessionID := sess.AppleSessionID()
	requestID := sess.NextFCUPRequestID()

	body, err := aplist.EncodeBinary(map[string]interface{}{
		"sessionID":              appleSessionID,
		"FCUP_Request_RequestID": uint64(requestID),
		"FCUP_Request_URL":       url,
	})
	if err != nil {
		return 0, fmt.Errorf("fcup: encode request %d: %w", requestID, err)
	}

	if err := sender.SendEvent(ctx, ContentType, body); err != nil {
		return requestID, fmt.Errorf("fcup: send request %d for %s: %w", requestID, url, err)
	}
	return requestID, nil
}
