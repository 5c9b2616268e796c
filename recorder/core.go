package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/attenditechnology/attendi-capture-core/internal/applog"
)

// Core drives the recorder lifecycle state machine. A single mutex
// serializes Start, Stop, Release, and SetPlugins: the OS audio session
// is a global resource and parallel transitions would desynchronize the
// state machine from it.
type Core struct {
	mu sync.Mutex

	model   *Model
	source  AudioSource
	cfg     Config
	plugins []Plugin
	logger  applog.Logger

	started    bool
	released   bool
	taskCancel context.CancelFunc
}

// NewCore wires an AudioSource and Config into a fresh, Idle Core and
// installs the model's imperative start/stop forwarders.
func NewCore(source AudioSource, cfg Config) *Core {
	return NewCoreWithLogger(source, cfg, applog.NoOpLogger{})
}

// NewCoreWithLogger is NewCore with an explicit Logger for lifecycle and
// error diagnostics.
func NewCoreWithLogger(source AudioSource, cfg Config, logger applog.Logger) *Core {
	if logger == nil {
		logger = applog.NoOpLogger{}
	}
	c := &Core{
		model:  NewModel(),
		source: source,
		cfg:    cfg,
		logger: logger,
	}
	c.model.SetForwarders(
		func(ctx context.Context) error { return c.Start(ctx, 0) },
		func(ctx context.Context) error { return c.Stop(ctx, 0) },
	)
	return c
}

// Model exposes the underlying RecorderModel for registration and
// published-state access.
func (c *Core) Model() *Model { return c.model }

// State returns the current lifecycle state.
func (c *Core) State() State { return c.model.State() }

// States returns a stream of subsequent state changes.
func (c *Core) States() <-chan State { return c.model.States() }

// SetPlugins atomically deactivates the previous plugin set (in reverse
// registration order) then activates the new set (in order), awaiting
// each activate/deactivate sequentially.
func (c *Core) SetPlugins(ctx context.Context, plugins []Plugin) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return ErrReleased
	}

	prev := c.plugins
	for i := len(prev) - 1; i >= 0; i-- {
		if err := prev[i].Deactivate(ctx, c.model); err != nil {
			return err
		}
	}
	for _, p := range plugins {
		if err := p.Activate(ctx, c.model); err != nil {
			return err
		}
	}
	c.plugins = plugins
	return nil
}

// Start transitions Idle->Loading synchronously (dispatching before_start
// under the mutex) and schedules a cancellable delayed-start tail task
// that, on firing, starts the AudioSource and transitions
// Loading->Recording. A no-op if already started or released.
func (c *Core) Start(ctx context.Context, delay time.Duration) error {
	c.mu.Lock()

	if c.started || c.released {
		c.mu.Unlock()
		return nil
	}
	c.started = true

	if err := c.model.UpdateState(ctx, StateLoading); err != nil {
		c.started = false
		c.mu.Unlock()
		return err
	}
	if err := c.model.Invoke(ctx, EventBeforeStart, nil); err != nil {
		c.started = false
		c.mu.Unlock()
		return err
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	c.taskCancel = cancel

	go c.runDelayedStart(taskCtx, delay)

	c.mu.Unlock()
	return nil
}

func (c *Core) runDelayedStart(ctx context.Context, delay time.Duration) {
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return
		}
	} else {
		select {
		case <-ctx.Done():
			return
		default:
		}
	}

	err := c.source.StartRecording(ctx, c.cfg, func(f Frame) {
		_ = c.model.Invoke(context.Background(), EventAudioFrame, f)
	})

	c.mu.Lock()
	if ctx.Err() != nil {
		// Cancelled concurrently (Stop/Release raced the timer). Cancellation
		// is never reported as an error.
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.started = false
		c.taskCancel = nil
		c.logger.Error("recorder: start recording failed", "error", err)
		_ = c.model.Invoke(context.Background(), EventError, err)
		_ = c.model.UpdateState(context.Background(), StateIdle)
		c.mu.Unlock()
		return
	}

	c.taskCancel = nil
	_ = c.model.UpdateState(context.Background(), StateRecording)
	_ = c.model.Invoke(context.Background(), EventStart, nil)
	c.mu.Unlock()
}

// Stop transitions Recording->Processing (dispatching before_stop), waits
// delay, stops the AudioSource, cancels any still-pending delayed-start
// task, dispatches stop, and returns to Idle. A no-op if not started or
// released.
func (c *Core) Stop(ctx context.Context, delay time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.released {
		return nil
	}

	if err := c.model.UpdateState(ctx, StateProcessing); err != nil {
		return err
	}
	if err := c.model.Invoke(ctx, EventBeforeStop, nil); err != nil {
		return err
	}

	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}

	c.source.StopRecording()

	if c.taskCancel != nil {
		c.taskCancel()
		c.taskCancel = nil
	}

	c.started = false

	if err := c.model.Invoke(ctx, EventStop, nil); err != nil {
		return err
	}
	return c.model.UpdateState(ctx, StateIdle)
}

// Release deactivates plugins (in reverse order), cancels any pending
// task, stops the audio source, and marks the Core released. Idempotent.
func (c *Core) Release(ctx context.Context) {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.released = true
	c.started = false

	plugins := c.plugins
	c.plugins = nil

	taskCancel := c.taskCancel
	c.taskCancel = nil
	c.mu.Unlock()

	if taskCancel != nil {
		taskCancel()
	}

	for i := len(plugins) - 1; i >= 0; i-- {
		_ = plugins[i].Deactivate(ctx, c.model)
	}

	c.source.StopRecording()

	_ = c.model.UpdateState(ctx, StateIdle)
}
