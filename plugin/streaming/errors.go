package streaming

import "errors"

// errStreamAborted is delivered to Events.OnCompleted when a cycle ends
// because of a decode failure or a transport error rather than a normal
// before_stop/Disconnect.
var errStreamAborted = errors.New("streaming: session aborted before a clean stop")
