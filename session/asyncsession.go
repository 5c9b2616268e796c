package session

import (
	"context"
	"sync"
	"time"

	"github.com/attenditechnology/attendi-capture-core/internal/applog"
)

// closePollInterval and defaultCloseTimeout implement the graceful-close
// polling contract: poll socket-closed state every 50ms up to 5000ms
// overall.
const (
	closePollInterval   = 50 * time.Millisecond
	defaultCloseTimeout = 5000 * time.Millisecond
)

// AsyncSession manages one streaming connection: connect with retry, an
// open/close handshake, a receive loop, and send. A single instance
// connects exactly once; once closed a new instance is required.
type AsyncSession struct {
	mu sync.Mutex

	dialer Dialer
	hooks  Hooks
	logger applog.Logger

	// closeTimeout bounds Disconnect's wait for the peer's close after
	// sending the close message. Defaults to defaultCloseTimeout; tests
	// shrink it to exercise the DisconnectTimeout error path.
	closeTimeout time.Duration

	status         Status
	transport      Transport
	listener       Listener
	connectStarted bool
	disconnecting  bool
}

// New builds an AsyncSession bound to dialer with the given protocol
// hooks.
func New(dialer Dialer, hooks Hooks) *AsyncSession {
	return NewWithLogger(dialer, hooks, applog.NoOpLogger{})
}

// NewWithLogger is New with an explicit Logger for connect/retry/close
// diagnostics.
func NewWithLogger(dialer Dialer, hooks Hooks, logger applog.Logger) *AsyncSession {
	if logger == nil {
		logger = applog.NoOpLogger{}
	}
	return &AsyncSession{
		dialer:       dialer,
		hooks:        hooks,
		logger:       logger,
		closeTimeout: defaultCloseTimeout,
		status:       StatusDisconnected,
	}
}

// Status returns the current connection status.
func (s *AsyncSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Connect opens the connection exactly once per instance lifetime. A
// concurrent or repeat call blocks on the internal mutex and then returns
// without side effects.
func (s *AsyncSession) Connect(ctx context.Context, l Listener) error {
	s.mu.Lock()
	if s.connectStarted {
		s.mu.Unlock()
		return nil
	}
	s.connectStarted = true
	s.listener = l
	s.status = StatusConnecting
	s.mu.Unlock()

	var req Request
	if s.hooks.CreateRequest != nil {
		req = s.hooks.CreateRequest(ctx)
	}

	remaining := s.hooks.RetryCount
	attempt := 0

	for {
		transport, err := s.dialer.Dial(ctx, req)
		if err == nil {
			s.mu.Lock()
			s.transport = transport
			s.status = StatusOpen
			s.mu.Unlock()

			if payload, isText, present := s.callOpenMessageHook(); present {
				_ = transport.Send(ctx, isText, payload)
			}

			if l.OnOpen != nil {
				l.OnOpen()
			}

			go s.receiveLoop(transport)
			return nil
		}

		if remaining <= 0 {
			s.mu.Lock()
			s.status = StatusDisconnected
			s.mu.Unlock()
			s.logger.Error("session: connect failed, retries exhausted", "error", err)
			if l.OnError != nil {
				l.OnError(&Error{Kind: ErrKindUnknown, Msg: err.Error()})
			}
			return err
		}

		attempt++
		remaining--
		s.logger.Warn("session: connect attempt failed, retrying", "attempt", attempt, "error", err)
		if s.hooks.OnRetryAttempt != nil {
			req = s.hooks.OnRetryAttempt(ctx, attempt, req, err)
		}
	}
}

func (s *AsyncSession) callOpenMessageHook() ([]byte, bool, bool) {
	if s.hooks.OpenMessage == nil {
		return nil, false, false
	}
	return s.hooks.OpenMessage()
}

func (s *AsyncSession) callCloseMessageHook() ([]byte, bool, bool) {
	if s.hooks.CloseMessage == nil {
		return nil, false, false
	}
	return s.hooks.CloseMessage()
}

// receiveLoop reads messages until the transport errs, dispatching text
// messages to OnMessage. It always ends with exactly one OnClose and
// resets the session to Disconnected.
func (s *AsyncSession) receiveLoop(transport Transport) {
	for {
		isText, payload, err := transport.Receive(context.Background())
		if err != nil {
			s.mu.Lock()
			disconnecting := s.disconnecting
			l := s.listener
			s.mu.Unlock()
			if !disconnecting && l.OnError != nil {
				l.OnError(&Error{Kind: ErrKindUnknown, Msg: err.Error()})
			}
			break
		}

		if isText {
			s.mu.Lock()
			l := s.listener
			s.mu.Unlock()
			if l.OnMessage != nil {
				l.OnMessage(payload)
			}
		}
	}

	s.mu.Lock()
	l := s.listener
	s.transport = nil
	s.listener = Listener{}
	s.status = StatusDisconnected
	s.disconnecting = false
	s.mu.Unlock()

	if l.OnClose != nil {
		l.OnClose()
	}
}

// Disconnect is idempotent: a no-op unless the session is Open. When open,
// it sends the configured close message (if any) and waits up to
// closeTimeout for the peer to close the socket; absent a close message
// it closes the socket itself immediately.
func (s *AsyncSession) Disconnect(ctx context.Context) {
	s.mu.Lock()
	if s.status != StatusOpen {
		s.mu.Unlock()
		return
	}
	s.status = StatusClosing
	s.disconnecting = true
	transport := s.transport
	s.mu.Unlock()

	payload, isText, present := s.callCloseMessageHook()
	if !present {
		if transport != nil {
			_ = transport.Close(s.hooks.CloseCode, "client disconnect")
		}
		return
	}

	if transport != nil {
		_ = transport.Send(ctx, isText, payload)
	}

	deadline := time.Now().Add(s.closeTimeout)
	for time.Now().Before(deadline) {
		if s.Status() == StatusDisconnected {
			return
		}
		time.Sleep(closePollInterval)
	}
	if s.Status() == StatusDisconnected {
		return
	}

	// Report the timeout before closing: closing ends the receive loop,
	// which fires OnClose and clears the listener.
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l.OnError != nil {
		l.OnError(&Error{Kind: ErrKindDisconnectTimeout, Msg: "peer did not close within timeout"})
	}

	if transport != nil {
		_ = transport.Close(s.hooks.CloseCode, "disconnect timeout")
	}
}

// SendText sends a text message, returning false (and dropping it) unless
// the session is Open.
func (s *AsyncSession) SendText(ctx context.Context, text []byte) bool {
	return s.send(ctx, true, text)
}

// SendBytes sends a binary message, returning false (and dropping it)
// unless the session is Open.
func (s *AsyncSession) SendBytes(ctx context.Context, b []byte) bool {
	return s.send(ctx, false, b)
}

func (s *AsyncSession) send(ctx context.Context, isText bool, payload []byte) bool {
	s.mu.Lock()
	if s.status != StatusOpen {
		s.mu.Unlock()
		return false
	}
	transport := s.transport
	s.mu.Unlock()

	return transport.Send(ctx, isText, payload) == nil
}
