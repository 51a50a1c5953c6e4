package msgs

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Message is a serializable message with a type ID.
type Message interface {
	proto.Message
	TypeID() uint32
}

// MessageTypes creates empty messages by type ID.
var MessageTypes = map[uint32]func() Message{
	CommandErrTypeID:       func() Message { return &CommandErr{} },
	SetPinModeTypeID:       func() Message { return &SetPinMode{} },
	DigitalWriteTypeID:     func() Message { return &DigitalWrite{} },
	AnalogWriteTypeID:      func() Message { return &AnalogWrite{} },
	SamplingIntervalTypeID: func() Message { return &SamplingInterval{} },
	ServoConfigTypeID:      func() Message { return &ServoConfig{} },
	StateEventTypeID:       func() Message { return &StateEvent{} },
	PinEventTypeID:         func() Message { return &PinEvent{} },
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// Typed wraps a message with type information.
type Typed struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

// TypedFrom wraps a message.
func TypedFrom(msg Message) (*Typed, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: msg.TypeID(), Message: data}, nil
}

// Marshal wraps a message and encodes the envelope.
func Marshal(msg Message) ([]byte, error) {
	typed, err := TypedFrom(msg)
	if err != nil {
		return nil, err
	}
	return typed.Encode()
}

// UnmarshalTyped decodes an envelope only.
func UnmarshalTyped(data []byte, typed *Typed) error {
	return proto.Unmarshal(data, typed)
}

// Unmarshal decodes an envelope and the message inside.
func Unmarshal(data []byte) (Message, error) {
	var typed Typed
	if err := UnmarshalTyped(data, &typed); err != nil {
		return nil, err
	}
	return typed.Decode()
}

// Decode decodes the wrapped message.
func (m *Typed) Decode() (Message, error) {
	newMsg, ok := MessageTypes[m.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: m.TypeId}
	}
	msg := newMsg()
	if err := proto.Unmarshal(m.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Typed to bytes.
func (m *Typed) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Kind gets message kind from type ID.
func (m *Typed) Kind() uint32 {
	return m.TypeId & TypeIDMaskKind
}

// IsCommand determines if the message is a command.
func (m *Typed) IsCommand() bool {
	return m.Kind() == TypeIDKindCommand
}
