package session

import (
	"context"
	"fmt"
	"net/http"
)

// Status is the AsyncSession's connection lifecycle stage. Only Open
// accepts outbound sends.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusOpen
	StatusClosing
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// ErrorKind classifies the AsyncSession error taxonomy.
type ErrorKind int

const (
	ErrKindFailedToConnect ErrorKind = iota
	ErrKindClosedAbnormally
	ErrKindConnectTimeout
	ErrKindDisconnectTimeout
	ErrKindUnknown
)

// Error is the tagged-union payload delivered to Listener.OnError.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("session error (%v): %s", e.Kind, e.Msg)
}

// Listener is the set of callbacks an AsyncSession invokes as the
// connection progresses.
type Listener struct {
	OnOpen    func()
	OnMessage func(text []byte)
	OnError   func(err *Error)
	OnClose   func()
}

// Request is the outgoing handshake request built by Hooks.CreateRequest
// / Hooks.OnRetryAttempt.
type Request struct {
	URL    string
	Header http.Header
}

// Transport is the capability AsyncSession drives: a single bidirectional
// message channel. A concrete production Transport (session/wstransport)
// wraps github.com/coder/websocket.
type Transport interface {
	// Send writes a single message; isText distinguishes a text frame
	// from a binary frame.
	Send(ctx context.Context, isText bool, payload []byte) error

	// Receive blocks for the next inbound message.
	Receive(ctx context.Context) (isText bool, payload []byte, err error)

	// Close closes the underlying socket with the given close code/reason.
	Close(code int, reason string) error
}

// Dialer opens a Transport for a Request.
type Dialer interface {
	Dial(ctx context.Context, req Request) (Transport, error)
}

// Hooks parameterize AsyncSession's connect/retry/open/close policy so a
// single engine can serve multiple protocol variants.
type Hooks struct {
	// CreateRequest builds the first connect request.
	CreateRequest func(ctx context.Context) Request

	// OnRetryAttempt builds the next request after a failed attempt;
	// implementations typically refresh an auth token here.
	OnRetryAttempt func(ctx context.Context, attempt int, prev Request, err error) Request

	// RetryCount is the number of additional attempts after the first.
	RetryCount int

	// OpenMessage, if present returns true, is sent immediately after a
	// successful connect.
	OpenMessage func() (payload []byte, isText bool, present bool)

	// CloseMessage, if present returns true, is sent by Disconnect before
	// polling for the peer's close.
	CloseMessage func() (payload []byte, isText bool, present bool)

	// CloseCode is used when this side must forcibly close the socket.
	CloseCode int
}
