package firmata

import (
	"errors"
	"fmt"
)

var (
	// ErrValueOutOfRange indicates a field doesn't fit its wire encoding.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrMalformedFrame indicates a complete frame whose payload can't be decoded.
	ErrMalformedFrame = errors.New("malformed frame")
)

func outOfRange(field string, value, max uint32) error {
	return fmt.Errorf("%w: %s %d > %d", ErrValueOutOfRange, field, value, max)
}

func malformed(what string, data []byte) error {
	return fmt.Errorf("%w: %s % X", ErrMalformedFrame, what, data)
}
