package client

import (
	"context"
	"fmt"

	"github.com/tasosval/sharpduino/pkg/firmata"
)

// ConnState is the state of the connection to a board.
type ConnState int32

// Connection states.
const (
	Disconnected ConnState = iota
	Connecting
	Initialized
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Initialized:
		return "Initialized"
	}
	return fmt.Sprintf("ConnState(%d)", int32(s))
}

// StateNotifier is called when the connection state changed.
type StateNotifier interface {
	StateChanged(context.Context, ConnState)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, ConnState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state ConnState) {
	f(ctx, state)
}

// MessageHandler is called for every message received, after the board
// model has been updated.
type MessageHandler interface {
	HandleMessage(context.Context, firmata.Message)
}

// HandleMessageFunc is func type of MessageHandler.
type HandleMessageFunc func(context.Context, firmata.Message)

// HandleMessage implements MessageHandler.
func (f HandleMessageFunc) HandleMessage(ctx context.Context, msg firmata.Message) {
	f(ctx, msg)
}
