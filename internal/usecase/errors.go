package usecase

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrValidation blocks an operation locally, before any gateway call.
	ErrValidation = errors.New("validation failed")
	// ErrRemote means the remote gateway rejected or failed a request.
	ErrRemote = errors.New("remote gateway error")
	// ErrTimeout means the local deadline elapsed before a response.
	ErrTimeout = errors.New("deadline exceeded")
	// ErrBusy rejects a submission while another one is in flight.
	ErrBusy = errors.New("operation already in flight")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// wrapRemote classifies a failed gateway call. Deadline expiry both resolves
// the caller's wait with ErrTimeout and cancels the underlying request: the
// gateway honors context, so a late result cannot surface afterwards.
func wrapRemote(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrRemote, err)
}
