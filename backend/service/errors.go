package service

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectivity means the startup probe could not reach the model endpoint.
	ErrConnectivity = errors.New("llm endpoint unreachable")

	ErrExtraction          = errors.New("failed to extract document text")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds upload limit")
	ErrEmptyDocument       = errors.New("document contains no extractable text")
)

// TransportError is a failure to complete the HTTP round trip to the model endpoint.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a response from the model endpoint that carries no usable completion.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error (status %d): %s", e.StatusCode, e.Message)
}

// IsLLMFailure reports whether err came from the model endpoint round trip.
func IsLLMFailure(err error) bool {
	var te *TransportError
	var ae *APIError
	return errors.As(err, &te) || errors.As(err, &ae)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
