package msgs

import (
	"github.com/golang/protobuf/proto"
)

// Type IDs.
const (
	CommandErrTypeID       uint32 = 0x00000001
	SetPinModeTypeID       uint32 = 0x00010001
	DigitalWriteTypeID     uint32 = 0x00010002
	AnalogWriteTypeID      uint32 = 0x00010003
	SamplingIntervalTypeID uint32 = 0x00010004
	ServoConfigTypeID      uint32 = 0x00010005
	StateEventTypeID       uint32 = 0x80010001
	PinEventTypeID         uint32 = 0x80010002
)

// SetPinMode sets the mode of a pin.
type SetPinMode struct {
	Pin  uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
	Mode uint32 `protobuf:"varint,2,opt,name=mode,proto3" json:"mode,omitempty"`
}

func (m *SetPinMode) Reset()         { *m = SetPinMode{} }
func (m *SetPinMode) String() string { return proto.CompactTextString(m) }
func (*SetPinMode) ProtoMessage()    {}

// TypeID implements Message.
func (*SetPinMode) TypeID() uint32 { return SetPinModeTypeID }

// DigitalWrite sets a digital output.
type DigitalWrite struct {
	Pin   uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
	Value bool   `protobuf:"varint,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *DigitalWrite) Reset()         { *m = DigitalWrite{} }
func (m *DigitalWrite) String() string { return proto.CompactTextString(m) }
func (*DigitalWrite) ProtoMessage()    {}

// TypeID implements Message.
func (*DigitalWrite) TypeID() uint32 { return DigitalWriteTypeID }

// AnalogWrite writes a PWM or servo value.
type AnalogWrite struct {
	Pin   uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
	Value uint32 `protobuf:"varint,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *AnalogWrite) Reset()         { *m = AnalogWrite{} }
func (m *AnalogWrite) String() string { return proto.CompactTextString(m) }
func (*AnalogWrite) ProtoMessage()    {}

// TypeID implements Message.
func (*AnalogWrite) TypeID() uint32 { return AnalogWriteTypeID }

// SamplingInterval sets the analog sampling interval.
type SamplingInterval struct {
	IntervalMs uint32 `protobuf:"varint,1,opt,name=interval_ms,json=intervalMs,proto3" json:"interval_ms,omitempty"`
}

func (m *SamplingInterval) Reset()         { *m = SamplingInterval{} }
func (m *SamplingInterval) String() string { return proto.CompactTextString(m) }
func (*SamplingInterval) ProtoMessage()    {}

// TypeID implements Message.
func (*SamplingInterval) TypeID() uint32 { return SamplingIntervalTypeID }

// ServoConfig attaches a servo.
type ServoConfig struct {
	Pin      uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
	MinPulse uint32 `protobuf:"varint,2,opt,name=min_pulse,json=minPulse,proto3" json:"min_pulse,omitempty"`
	MaxPulse uint32 `protobuf:"varint,3,opt,name=max_pulse,json=maxPulse,proto3" json:"max_pulse,omitempty"`
	Angle    uint32 `protobuf:"varint,4,opt,name=angle,proto3" json:"angle,omitempty"`
}

func (m *ServoConfig) Reset()         { *m = ServoConfig{} }
func (m *ServoConfig) String() string { return proto.CompactTextString(m) }
func (*ServoConfig) ProtoMessage()    {}

// TypeID implements Message.
func (*ServoConfig) TypeID() uint32 { return ServoConfigTypeID }

// CommandErr reports a failed command.
type CommandErr struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message string `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *CommandErr) Reset()         { *m = CommandErr{} }
func (m *CommandErr) String() string { return proto.CompactTextString(m) }
func (*CommandErr) ProtoMessage()    {}

// TypeID implements Message.
func (*CommandErr) TypeID() uint32 { return CommandErrTypeID }

// StateEvent reports the connection state of the board.
type StateEvent struct {
	State string `protobuf:"bytes,1,opt,name=state,proto3" json:"state,omitempty"`
}

func (m *StateEvent) Reset()         { *m = StateEvent{} }
func (m *StateEvent) String() string { return proto.CompactTextString(m) }
func (*StateEvent) ProtoMessage()    {}

// TypeID implements Message.
func (*StateEvent) TypeID() uint32 { return StateEventTypeID }

// PinEvent reports the mode and value of a pin.
type PinEvent struct {
	Pin   uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
	Mode  uint32 `protobuf:"varint,2,opt,name=mode,proto3" json:"mode,omitempty"`
	Value uint32 `protobuf:"varint,3,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *PinEvent) Reset()         { *m = PinEvent{} }
func (m *PinEvent) String() string { return proto.CompactTextString(m) }
func (*PinEvent) ProtoMessage()    {}

// TypeID implements Message.
func (*PinEvent) TypeID() uint32 { return PinEventTypeID }
