package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPage = errors.New("invalid page")
)

// Kind classifies a failed request to the notes API.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuthFailure
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthFailure:
		return "auth_failure"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// RequestError is a classified failure returned by the notes API client.
type RequestError struct {
	Kind    Kind
	Status  int // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first RequestError in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries a RequestError of kind k.
func IsKind(err error, k Kind) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == k
}
