package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates the connection has been closed locally.
	ErrClosed = errors.New("transport closed")
	// ErrDisconnected indicates the device went away.
	ErrDisconnected = errors.New("device disconnected")
	// ErrTimeout indicates no byte arrived within Config.ReadTimeout.
	ErrTimeout = errors.New("read timeout")
	// ErrNoPort indicates Config.Port is empty.
	ErrNoPort = errors.New("port is required")
)

// OpenError is returned when a link can't be opened.
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Port, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpenError) Unwrap() error {
	return e.Err
}
