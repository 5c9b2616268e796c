package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu       sync.Mutex
	sent     [][]byte
	sentText []bool
	inbound  chan fakeMsg
	closed   bool
	closeErr error
}

type fakeMsg struct {
	isText  bool
	payload []byte
	err     error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan fakeMsg, 16)}
}

func (f *fakeTransport) Send(ctx context.Context, isText bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	f.sentText = append(f.sentText, isText)
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (bool, []byte, error) {
	msg, ok := <-f.inbound
	if !ok {
		return false, nil, errors.New("closed")
	}
	return msg.isText, msg.payload, msg.err
}

func (f *fakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.inbound)
	return f.closeErr
}

func (f *fakeTransport) pushText(s string) {
	f.inbound <- fakeMsg{isText: true, payload: []byte(s)}
}

type fakeDialer struct {
	mu        sync.Mutex
	failTimes int
	transport *fakeTransport
	dials     int
}

func (d *fakeDialer) Dial(ctx context.Context, req Request) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failTimes > 0 {
		d.failTimes--
		return nil, errors.New("dial failed")
	}
	return d.transport, nil
}

func basicHooks() Hooks {
	return Hooks{
		CreateRequest: func(ctx context.Context) Request { return Request{URL: "wss://example"} },
	}
}

func TestAsyncSession_ConnectSuccess_FiresOnOpen(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	s := New(dialer, basicHooks())

	opened := make(chan struct{})
	require.NoError(t, s.Connect(context.Background(), Listener{
		OnOpen: func() { close(opened) },
	}))

	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatal("OnOpen not called")
	}
	require.Equal(t, StatusOpen, s.Status())
}

func TestAsyncSession_Connect_SecondCallIsNoOp(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	s := New(dialer, basicHooks())

	require.NoError(t, s.Connect(context.Background(), Listener{}))
	require.NoError(t, s.Connect(context.Background(), Listener{}))
	require.Equal(t, 1, dialer.dials)
}

func TestAsyncSession_Connect_RetriesThenSucceeds(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft, failTimes: 2}
	hooks := basicHooks()
	hooks.RetryCount = 3
	retries := 0
	hooks.OnRetryAttempt = func(ctx context.Context, attempt int, prev Request, err error) Request {
		retries++
		return prev
	}
	s := New(dialer, hooks)

	require.NoError(t, s.Connect(context.Background(), Listener{}))
	require.Equal(t, StatusOpen, s.Status())
	require.Equal(t, 2, retries)
	require.Equal(t, 3, dialer.dials)
}

func TestAsyncSession_Connect_ExhaustsRetriesFiresOnError(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft, failTimes: 10}
	hooks := basicHooks()
	hooks.RetryCount = 2
	s := New(dialer, hooks)

	var gotErr *Error
	err := s.Connect(context.Background(), Listener{
		OnError: func(e *Error) { gotErr = e },
	})
	require.Error(t, err)
	require.NotNil(t, gotErr)
	require.Equal(t, ErrKindUnknown, gotErr.Kind)
	require.Equal(t, StatusDisconnected, s.Status())
}

func TestAsyncSession_OpenMessage_SentOnConnect(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	hooks := basicHooks()
	hooks.OpenMessage = func() ([]byte, bool, bool) { return []byte(`{"type":"ClientConfiguration"}`), true, true }
	s := New(dialer, hooks)

	require.NoError(t, s.Connect(context.Background(), Listener{}))

	require.Eventually(t, func() bool {
		ft.mu.Lock()
		defer ft.mu.Unlock()
		return len(ft.sent) == 1
	}, time.Second, time.Millisecond)
}

func TestAsyncSession_OnMessage_ReceivesTextMessages(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	s := New(dialer, basicHooks())

	received := make(chan string, 1)
	require.NoError(t, s.Connect(context.Background(), Listener{
		OnMessage: func(text []byte) { received <- string(text) },
	}))

	ft.pushText(`{"actions":[]}`)

	select {
	case msg := <-received:
		require.Equal(t, `{"actions":[]}`, msg)
	case <-time.After(time.Second):
		t.Fatal("OnMessage not called")
	}
}

func TestAsyncSession_SendOnlyWhenOpen(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	s := New(dialer, basicHooks())

	require.False(t, s.SendBytes(context.Background(), []byte{1, 2, 3}))

	require.NoError(t, s.Connect(context.Background(), Listener{}))
	require.True(t, s.SendBytes(context.Background(), []byte{1, 2, 3}))
}

func TestAsyncSession_Disconnect_NoCloseMessage_ClosesImmediately(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	s := New(dialer, basicHooks())

	closed := make(chan struct{})
	require.NoError(t, s.Connect(context.Background(), Listener{
		OnClose: func() { close(closed) },
	}))

	s.Disconnect(context.Background())

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("OnClose not called")
	}
	require.Equal(t, StatusDisconnected, s.Status())
}

func TestAsyncSession_Disconnect_IsIdempotent(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	s := New(dialer, basicHooks())

	s.Disconnect(context.Background()) // not open: no-op
	require.Equal(t, StatusDisconnected, s.Status())

	require.NoError(t, s.Connect(context.Background(), Listener{}))
	s.Disconnect(context.Background())
	s.Disconnect(context.Background()) // already closing: no-op
	// The receive loop resets the status once it observes the close.
	require.Eventually(t, func() bool {
		return s.Status() == StatusDisconnected
	}, time.Second, time.Millisecond)
}

func TestAsyncSession_Disconnect_TimesOutIfPeerNeverCloses(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	hooks := basicHooks()
	hooks.CloseMessage = func() ([]byte, bool, bool) { return []byte("bye"), true, true }
	s := New(dialer, hooks)
	s.closeTimeout = 20 * time.Millisecond

	var gotErr *Error
	require.NoError(t, s.Connect(context.Background(), Listener{
		OnError: func(e *Error) { gotErr = e },
	}))

	s.Disconnect(context.Background())

	require.NotNil(t, gotErr)
	require.Equal(t, ErrKindDisconnectTimeout, gotErr.Kind)
}

func TestAsyncSession_Disconnect_WithCloseMessage_WaitsForPeer(t *testing.T) {
	ft := newFakeTransport()
	dialer := &fakeDialer{transport: ft}
	hooks := basicHooks()
	hooks.CloseMessage = func() ([]byte, bool, bool) { return []byte("bye"), true, true }
	s := New(dialer, hooks)

	require.NoError(t, s.Connect(context.Background(), Listener{}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		ft.Close(1000, "peer closed")
	}()

	start := time.Now()
	s.Disconnect(context.Background())
	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, StatusDisconnected, s.Status())
}
