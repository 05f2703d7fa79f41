package phrasebook

import (
	"errors"
	"fmt"
)

// ErrEmptyPhrase is returned when a blank phrase is passed to Translate.
var ErrEmptyPhrase = errors.New("phrase is empty")

// MissingCredentialError indicates the provider credential is not configured.
// No remote translation is possible until the process is reconfigured.
type MissingCredentialError struct {
	Provider string
	EnvVar   string // Environment variable the credential is read from
}

func (e *MissingCredentialError) Error() string {
	if e.EnvVar != "" {
		return fmt.Sprintf("missing %s credential: %s is not set", e.Provider, e.EnvVar)
	}
	return fmt.Sprintf("missing %s credential", e.Provider)
}

// TransportError indicates the request could not be sent or no response was received.
type TransportError struct {
	Provider string
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s transport error: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("%s transport error", e.Provider)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// DecodeError indicates a response was received but did not have the expected shape.
type DecodeError struct {
	Provider   string
	StatusCode int    // HTTP status, 0 if unknown
	Body       string // Truncated response body
	Cause      error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s decode error", e.Provider)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// EmptyResultError indicates the provider returned no usable translation.
type EmptyResultError struct {
	Phrase string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no translation returned for %q", e.Phrase)
}

// ProcessorError indicates a document could not be parsed.
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// ErrorKind is a coarse classification of translation errors.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindInvalidPhrase     ErrorKind = "invalid_phrase"
	KindMissingCredential ErrorKind = "missing_credential"
	KindTransport         ErrorKind = "transport"
	KindDecode            ErrorKind = "decode"
	KindEmptyResult       ErrorKind = "empty_result"
	KindProcessor         ErrorKind = "processor"
	KindUnknown           ErrorKind = "unknown"
)

// Kind classifies err.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		credErr      *MissingCredentialError
		transportErr *TransportError
		decodeErr    *DecodeError
		emptyErr     *EmptyResultError
		procErr      *ProcessorError
	)

	switch {
	case errors.Is(err, ErrEmptyPhrase):
		return KindInvalidPhrase
	case errors.As(err, &credErr):
		return KindMissingCredential
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &emptyErr):
		return KindEmptyResult
	case errors.As(err, &procErr):
		return KindProcessor
	default:
		return KindUnknown
	}
}
