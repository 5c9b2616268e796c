// Package wstransport is the production session.Transport/session.Dialer
// pair backed by github.com/coder/websocket, the same library the wider
// example corpus uses for its bidirectional streaming sockets.
package wstransport

import (
	"context"
	"fmt"

	"github.com/coder/websocket"

	"github.com/attenditechnology/attendi-capture-core/session"
)

// Dialer opens github.com/coder/websocket connections.
type Dialer struct {
	Options *websocket.DialOptions
}

// NewDialer returns a Dialer using default dial options.
func NewDialer() *Dialer {
	return &Dialer{}
}

func (d *Dialer) Dial(ctx context.Context, req session.Request) (session.Transport, error) {
	opts := d.Options
	if opts == nil {
		opts = &websocket.DialOptions{}
	}
	if req.Header != nil {
		cloned := *opts
		cloned.HTTPHeader = req.Header
		opts = &cloned
	}

	conn, _, err := websocket.Dial(ctx, req.URL, opts)
	if err != nil {
		return nil, fmt.Errorf("wstransport: dial %s: %w", req.URL, err)
	}
	conn.SetReadLimit(-1)
	return &transport{conn: conn}, nil
}

// transport adapts *websocket.Conn to session.Transport.
type transport struct {
	conn *websocket.Conn
}

func (t *transport) Send(ctx context.Context, isText bool, payload []byte) error {
	kind := websocket.MessageBinary
	if isText {
		kind = websocket.MessageText
	}
	return t.conn.Write(ctx, kind, payload)
}

func (t *transport) Receive(ctx context.Context) (bool, []byte, error) {
	kind, payload, err := t.conn.Read(ctx)
	if err != nil {
		return false, nil, err
	}
	return kind == websocket.MessageText, payload, nil
}

func (t *transport) Close(code int, reason string) error {
	return t.conn.Close(websocket.StatusCode(code), reason)
}
