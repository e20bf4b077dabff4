package transcribe

import (
	"errors"
	"fmt"
)

// ErrSegmentLength marks a segment whose size differs from the model window.
var ErrSegmentLength = errors.New("segment length mismatch")

// AudioLoadError reports that a source file could not be decoded.
type AudioLoadError struct {
	Path string
	Err  error
}

func (e *AudioLoadError) Error() string {
	return fmt.Sprintf("load audio %s: %v", e.Path, e.Err)
}

func (e *AudioLoadError) Unwrap() error { return e.Err }

// TranscriptionError reports a failed model call on one segment. Path is set
// once the error leaves the FileTranscriber.
type TranscriptionError struct {
	Path    string
	Segment int
	Err     error
}

func (e *TranscriptionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("transcribe segment %d: %v", e.Segment, e.Err)
	}
	return fmt.Sprintf("transcribe %s segment %d: %v", e.Path, e.Segment, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
