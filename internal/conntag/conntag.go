// Package conntag tags every accepted HTTP connection with a stable
// identity, so handlers/reverse.go can enforce "a single PTTH upgrade per
// forward connection" (spec.md §4.F, §8 scenario 6) across the lifetime of
// the TCP connection rather than per-request.
package conntag

import (
	"context"
	"net"

	"github.com/google/uuid"
)

type ctxKey struct{}

// ConnContext is installed as http.Server.ConnContext. It stamps each new
// connection with a random tag before any request on it is handled.
func ConnContext(ctx context.Context, c net.Conn) context.Context {
	return context.WithValue(ctx, ctxKey{}, uuid.NewString())
}

// FromContext returns the tag stamped on the connection serving ctx's
// request, or "" if none was stamped (e.g. in unit tests using httptest
// without ConnContext wired).
func FromContext(ctx context.Context) string {
	tag, _ := ctx.Value(ctxKey{}).(string)
	return tag
}
