package streaming

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/attenditechnology/attendi-capture-core/recorder"
	"github.com/attenditechnology/attendi-capture-core/session"
	"github.com/attenditechnology/attendi-capture-core/transcribe"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	inbound chan fakeMsg
	closed  bool
}

type fakeMsg struct {
	isText  bool
	payload []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan fakeMsg, 16)}
}

func (f *fakeTransport) Send(ctx context.Context, isText bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (bool, []byte, error) {
	msg, ok := <-f.inbound
	if !ok {
		return false, nil, errors.New("closed")
	}
	return msg.isText, msg.payload, nil
}

func (f *fakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.inbound)
	return nil
}

func (f *fakeTransport) pushText(s string) {
	f.inbound <- fakeMsg{isText: true, payload: []byte(s)}
}

type fakeDialer struct{ transport *fakeTransport }

func (d *fakeDialer) Dial(ctx context.Context, req session.Request) (session.Transport, error) {
	return d.transport, nil
}

func newTestSession(ft *fakeTransport) *session.AsyncSession {
	return session.New(&fakeDialer{transport: ft}, session.Hooks{
		CreateRequest: func(ctx context.Context) session.Request { return session.Request{} },
	})
}

func TestPlugin_HappyPath_DeliversTranscriptAndCompletes(t *testing.T) {
	ft := newFakeTransport()
	var connecting, started, updated int
	completedCh := make(chan error, 1)

	p := New(func() *session.AsyncSession { return newTestSession(ft) }, Events{
		OnConnecting: func() { connecting++ },
		OnStarted:    func() { started++ },
		OnUpdated:    func(s *transcribe.Stream) { updated++ },
		OnCompleted:  func(s *transcribe.Stream, err error) { completedCh <- err },
	})

	m := recorder.NewModel()
	require.NoError(t, p.Activate(context.Background(), m))

	require.NoError(t, m.Invoke(context.Background(), recorder.EventBeforeStart, nil))
	require.Equal(t, 1, connecting)

	require.Eventually(t, func() bool { return started == 1 }, time.Second, time.Millisecond)

	ft.pushText(`{"actions":[{"id":"a1","index":0,"type":"replace_text","parameters":{"start":0,"end":0,"text":"hi"}}]}`)

	require.Eventually(t, func() bool { return updated == 1 }, time.Second, time.Millisecond)

	require.NoError(t, m.Invoke(context.Background(), recorder.EventBeforeStop, nil))

	select {
	case err := <-completedCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("OnCompleted not called")
	}
}

func TestPlugin_DecodeFailure_CompletesWithError(t *testing.T) {
	ft := newFakeTransport()
	completedCh := make(chan error, 1)

	p := New(func() *session.AsyncSession { return newTestSession(ft) }, Events{
		OnCompleted: func(s *transcribe.Stream, err error) { completedCh <- err },
	})

	m := recorder.NewModel()
	require.NoError(t, p.Activate(context.Background(), m))
	require.NoError(t, m.Invoke(context.Background(), recorder.EventBeforeStart, nil))

	ft.pushText(`not json`)

	select {
	case err := <-completedCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("OnCompleted not called")
	}
}
