package chessdto

import "errors"

// ErrMalformedMessage marks a client frame that could not be decoded or failed shape checks.
var ErrMalformedMessage = errors.New("malformed message")

// DomainError is the JSON error body of the admin API.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "choss service error"
}
