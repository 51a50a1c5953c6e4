package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized indicates the board hasn't completed the handshake.
	ErrNotInitialized = errors.New("not initialized")
	// ErrInitTimeout indicates the handshake didn't complete in time.
	ErrInitTimeout = errors.New("initialization timeout")
	// ErrNoSuchPin indicates the board doesn't have the pin.
	ErrNoSuchPin = errors.New("no such pin")
	// ErrModeNotSupported indicates the pin doesn't support the mode.
	ErrModeNotSupported = errors.New("mode not supported")
)

// PinError is an error about a specific pin.
type PinError struct {
	Pin byte
	Op  string
	Err error
}

// Error implements error.
func (e *PinError) Error() string {
	return fmt.Sprintf("%s pin %d: %v", e.Op, e.Pin, e.Err)
}

// Unwrap returns the underlying error.
func (e *PinError) Unwrap() error {
	return e.Err
}
