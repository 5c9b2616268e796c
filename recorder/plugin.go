package recorder

import "context"

// Plugin reacts to lifecycle and audio events fanned out by a Core. It is
// owned by the Core for the lifetime of its plugin slot: SetPlugins
// deactivates the previous set before activating the next.
type Plugin interface {
	Activate(ctx context.Context, m *Model) error
	Deactivate(ctx context.Context, m *Model) error
}

// BasePlugin gives embedders a no-op Deactivate, matching the spec's
// "deactivate has a default no-op" contract.
type BasePlugin struct{}

func (BasePlugin) Deactivate(context.Context, *Model) error { return nil }
