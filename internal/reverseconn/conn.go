// Package reverseconn implements the reverse-HTTP (PTTH/1.0) writer side of
// a hijacked connection: once POST /reverse upgrades a connection, the
// server becomes the HTTP client on that socket, issuing POST /event
// requests carrying FCUP plist bodies (spec.md §4.E). Responses are not
// read back here — the client answers on the forward channel via a
// subsequent POST /action, per spec.md §4.F's unhandledURLResponse branch
// — so writes are drained of whatever the peer sends back to keep the
// socket healthy without blocking a send on it.
package reverseconn

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Conn is a hijacked connection now used in the reverse direction.
type Conn struct {
	mu  sync.Mutex
	raw net.Conn
	bw  *bufio.Writer
}

// New wraps a hijacked connection. bw is the buffered writer returned
// alongside it by http.Hijacker.Hijack, reused to avoid double-buffering.
func New(raw net.Conn, bw *bufio.Writer) *Conn {
	c := &Conn{raw: raw, bw: bw}
	go c.drain()
	return c
}

// drain discards whatever bytes the peer sends on this socket outside of
// the forward channel, so a slow or chatty peer can never block a send.
func (c *Conn) drain() {
	io.Copy(io.Discard, c.raw)
}

// SendEvent implements fcup.ReverseSender.
func (c *Conn) SendEvent(ctx context.Context, contentType string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.raw.SetWriteDeadline(deadline)
	} else {
		c.raw.SetWriteDeadline(time.Time{})
	}

	if _, err := fmt.Fprintf(c.bw, "POST /event HTTP/1.0\r\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.bw, "Content-Type: %s\r\n", contentType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.bw, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	if _, err := c.bw.Write(body); err != nil {
		return err
	}
	return c.bw.Flush()
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	return c.raw.Close()
}
