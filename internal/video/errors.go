package video

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorType int

const (
	// ErrValidation marks bad input: malformed transcript records, style
	// values, unknown ids.
	ErrValidation ErrorType = iota
	// ErrCollaborator marks a failed storage, extraction or transcription
	// call.
	ErrCollaborator
	// ErrPrecondition marks an operation that was not applicable in the
	// current state.
	ErrPrecondition
)

func (t ErrorType) String() string {
	switch t {
	case ErrValidation:
		return "Validation"
	case ErrCollaborator:
		return "Collaborator"
	case ErrPrecondition:
		return "Precondition"
	default:
		return "Unknown"
	}
}

type Error struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func WrapError(err error, errorType ErrorType, message string) *Error {
	e := NewError(errorType, message)
	e.Cause = err
	return e
}

func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("[%s] %s", e.Type, e.Message)}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, "context: "+strings.Join(ctxParts, ", "))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}
	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func IsErrorType(err error, errorType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}

// Advice returns a user-facing hint for err, keyed by the failed step when
// the error carries one.
func Advice(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Please review the server log for details"
	}

	switch e.Type {
	case ErrCollaborator:
		switch e.Context["step"] {
		case StepUpload:
			return "Check the storage credentials and bucket, then upload the video again"
		case StepExtract:
			return "Check that ffmpeg is installed and the video contains an audio track"
		case StepTranscribe:
			return "Check the whisper-cli binary and model path, then retry caption generation"
		case StepPlayback:
			return "Check the storage credentials and that the object still exists"
		}
		return "A backend service failed; retry the operation"
	case ErrValidation:
		return "Please verify the request parameters"
	case ErrPrecondition:
		return "The operation is not available in the current state"
	default:
		return "Please review the server log for details"
	}
}

// Steps recorded in the "step" context of collaborator errors.
const (
	StepUpload     = "upload"
	StepExtract    = "extract"
	StepTranscribe = "transcribe"
	StepPlayback   = "playback"
)
