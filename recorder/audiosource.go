package recorder

import "context"

// AudioSource is the external collaborator that produces PCM frames once
// the OS has granted microphone permission. Its concrete realization (OS
// audio session, permission prompts) lives at the application boundary;
// the core only consumes this capability.
type AudioSource interface {
	IsRecording() bool

	// StartRecording begins capture at cfg and invokes onAudio for every
	// captured frame, in capture order, until StopRecording is called.
	// May fail with ErrAlreadyRecording, ErrPermissionDenied, or
	// *UnsupportedAudioFormatError.
	StartRecording(ctx context.Context, cfg Config, onAudio func(Frame)) error

	// StopRecording is infallible and idempotent.
	StopRecording()
}
