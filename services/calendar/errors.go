package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/api/googleapi"
)

// Kind separates retryable transport failures from everything else.
type Kind int

const (
	// KindTransient covers network, timeout, TLS and backend 5xx/429
	// failures. Reads retry these; writes surface them.
	KindTransient Kind = iota
	// KindPermanent covers bad calendar mappings, malformed payloads and
	// authorization failures. Never retried.
	KindPermanent
)

// Error wraps a gateway failure with its classification.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a gateway failure worth retrying.
func IsTransient(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind == KindTransient
	}
	return false
}

// classify wraps an error from the events API with its retry class.
func classify(op string, err error) *Error {
	kind := KindPermanent

	var apiErr *googleapi.Error
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Code >= 500 || apiErr.Code == 429 {
			kind = KindTransient
		}
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		kind = KindTransient
	}

	return &Error{Kind: kind, Op: op, Err: err}
}
