// Package streaming wires a recorder.Core to a streaming transcription
// backend: audio frames go out over a session.AsyncSession, decoded
// server actions come back in and are folded into a transcribe.Stream.
package streaming

import (
	"context"
	"sync"

	"github.com/attenditechnology/attendi-capture-core/recorder"
	"github.com/attenditechnology/attendi-capture-core/session"
	"github.com/attenditechnology/attendi-capture-core/transcribe"
)

// Events are the observer callbacks a caller installs to watch the
// transcription lifecycle. All are optional.
type Events struct {
	// OnConnecting fires just before the plugin dials the backend, once
	// per recording cycle.
	OnConnecting func()

	// OnStarted fires once the backend connection is open.
	OnStarted func()

	// OnUpdated fires after every server action batch lands in stream.
	OnUpdated func(stream *transcribe.Stream)

	// OnCompleted fires exactly once per recording cycle, whether the
	// cycle ended cleanly (err == nil) or was aborted by a decode or
	// transport failure.
	OnCompleted func(stream *transcribe.Stream, err error)
}

// Plugin is a recorder.Plugin that drives one streaming transcription
// session per recording cycle. It is not reusable across Activate/Deactivate
// pairs beyond what recorder.Core already guarantees (single active
// instance at a time).
type Plugin struct {
	newSession func() *session.AsyncSession
	events     Events

	mu        sync.Mutex
	stream    *transcribe.Stream
	model     *recorder.Model
	sess      *session.AsyncSession
	completed bool

	beforeStartHandle recorder.Handle
	audioFrameHandle  recorder.Handle
	beforeStopHandle  recorder.Handle
}

// New builds a Plugin. newSession is called on every before_start to
// obtain a fresh AsyncSession (an AsyncSession connects exactly once over
// its lifetime, so a new one is required for every recording).
func New(newSession func() *session.AsyncSession, events Events) *Plugin {
	return &Plugin{newSession: newSession, events: events}
}

// Activate registers the before_start, audio_frame, and before_stop
// handlers that drive the streaming session's lifecycle.
func (p *Plugin) Activate(ctx context.Context, m *recorder.Model) error {
	p.mu.Lock()
	p.model = m
	p.mu.Unlock()

	p.beforeStartHandle = m.On(recorder.EventBeforeStart, p.onBeforeStart)
	p.audioFrameHandle = m.On(recorder.EventAudioFrame, p.onAudioFrame)
	p.beforeStopHandle = m.On(recorder.EventBeforeStop, p.onBeforeStop)
	return nil
}

// Deactivate deregisters the handlers and disconnects any in-flight
// session.
func (p *Plugin) Deactivate(ctx context.Context, m *recorder.Model) error {
	m.Off(recorder.EventBeforeStart, p.beforeStartHandle)
	m.Off(recorder.EventAudioFrame, p.audioFrameHandle)
	m.Off(recorder.EventBeforeStop, p.beforeStopHandle)

	p.mu.Lock()
	sess := p.sess
	p.mu.Unlock()
	if sess != nil {
		sess.Disconnect(ctx)
	}
	return nil
}

func (p *Plugin) onBeforeStart(ctx context.Context, arg any) error {
	if p.events.OnConnecting != nil {
		p.events.OnConnecting()
	}

	stream := transcribe.NewStream()
	sess := p.newSession()

	p.mu.Lock()
	p.stream = stream
	p.sess = sess
	p.completed = false
	p.mu.Unlock()

	return sess.Connect(ctx, session.Listener{
		OnOpen: func() {
			if p.events.OnStarted != nil {
				p.events.OnStarted()
			}
		},
		OnMessage: p.onServerMessage,
		OnError: func(*session.Error) {
			p.fail(ctx, sess)
		},
		OnClose: func() {
			p.complete(nil)
		},
	})
}

func (p *Plugin) onAudioFrame(ctx context.Context, arg any) error {
	frame, ok := arg.(recorder.Frame)
	if !ok {
		return nil
	}
	p.mu.Lock()
	sess := p.sess
	p.mu.Unlock()
	if sess == nil {
		return nil
	}
	sess.SendBytes(ctx, frame.EncodePCM16LE())
	return nil
}

func (p *Plugin) onBeforeStop(ctx context.Context, arg any) error {
	p.mu.Lock()
	sess := p.sess
	p.mu.Unlock()
	if sess == nil {
		return nil
	}
	sess.Disconnect(ctx)
	return nil
}

func (p *Plugin) onServerMessage(text []byte) {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()
	if stream == nil {
		return
	}

	actions, err := transcribe.Decode(text)
	if err != nil {
		p.fail(context.Background(), p.currentSession())
		return
	}

	if err := stream.ReceiveActions(actions); err != nil {
		p.fail(context.Background(), p.currentSession())
		return
	}

	if p.events.OnUpdated != nil {
		p.events.OnUpdated(stream)
	}
}

func (p *Plugin) currentSession() *session.AsyncSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess
}

// fail aborts the current cycle: it forces the recorder back to Idle via
// the model's installed stop forwarder and tears down the session, then
// completes exactly once.
func (p *Plugin) fail(ctx context.Context, sess *session.AsyncSession) {
	p.mu.Lock()
	model := p.model
	p.mu.Unlock()

	if sess != nil {
		sess.Disconnect(ctx)
	}
	if model != nil {
		_ = model.Stop(ctx)
	}
	p.complete(errStreamAborted)
}

func (p *Plugin) complete(err error) {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return
	}
	p.completed = true
	stream := p.stream
	p.mu.Unlock()

	if p.events.OnCompleted != nil {
		p.events.OnCompleted(stream, err)
	}
}
