package recorder

import "errors"

var (
	// ErrAlreadyRecording is raised by an AudioSource when a recording
	// session is requested while one is already active.
	ErrAlreadyRecording = errors.New("audio source is already recording")

	// ErrPermissionDenied is raised by an AudioSource when the OS denies
	// microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrReleased is returned by Core operations attempted after Release.
	ErrReleased = errors.New("recorder core has been released")
)

// UnsupportedAudioFormatError is raised when a Config combination other
// than 16kHz/mono/PCM16/non-interleaved is requested.
type UnsupportedAudioFormatError struct {
	Msg string
}

func (e *UnsupportedAudioFormatError) Error() string {
	return "unsupported audio format: " + e.Msg
}
