package firmata

import "io"

// Message is a Firmata frame, in either direction.
type Message interface {
	// Encode returns the wire bytes of the frame.
	Encode() ([]byte, error)
}

// WriteMessage encodes and writes a message.
func WriteMessage(w io.Writer, msg Message) (int, error) {
	b, err := msg.Encode()
	if err != nil {
		return 0, err
	}
	return w.Write(b)
}

func checkPin(pin, limit byte) error {
	if pin >= limit {
		return outOfRange("pin", uint32(pin), uint32(limit)-1)
	}
	return nil
}

func check14(field string, v uint16) error {
	if v > Max14Bit {
		return outOfRange(field, uint32(v), uint32(Max14Bit))
	}
	return nil
}

func sysex(cmd SysexCmd, payload ...byte) []byte {
	b := make([]byte, 0, len(payload)+3)
	b = append(b, StartSysex, byte(cmd))
	b = append(b, payload...)
	return append(b, EndSysex)
}

// PinModeMessage sets the mode of a pin.
type PinModeMessage struct {
	Pin  byte
	Mode PinMode
}

// Encode implements Message.
func (m *PinModeMessage) Encode() ([]byte, error) {
	if err := checkPin(m.Pin, MaxPins); err != nil {
		return nil, err
	}
	if m.Mode > PinMode(sevenBitMask) {
		return nil, outOfRange("mode", uint32(m.Mode), uint32(sevenBitMask))
	}
	return []byte{SetPinModeCmd, m.Pin, byte(m.Mode)}, nil
}

// DigitalWriteMessage sets a single digital output pin.
type DigitalWriteMessage struct {
	Pin   byte
	Value bool
}

// Encode implements Message.
func (m *DigitalWriteMessage) Encode() ([]byte, error) {
	if err := checkPin(m.Pin, MaxPins); err != nil {
		return nil, err
	}
	return []byte{SetDigitalPinValueCmd, m.Pin, boolByte(m.Value)}, nil
}

// DigitalMessage carries the values of the 8 pins of a port.
// It's sent by the host to write outputs, and by the board to report inputs.
type DigitalMessage struct {
	Port   byte
	Values byte
}

// Encode implements Message.
func (m *DigitalMessage) Encode() ([]byte, error) {
	if m.Port >= MaxPorts {
		return nil, outOfRange("port", uint32(m.Port), MaxPorts-1)
	}
	lsb, msb := Split14(uint16(m.Values))
	return []byte{DigitalMessageCmd | m.Port, lsb, msb}, nil
}

// Pins expands Values.
func (m *DigitalMessage) Pins() [8]bool {
	return PinValues(m.Values)
}

// AnalogMessage writes a PWM/servo value, or reports an analog input.
// Pin is the analog channel when reported by the board.
type AnalogMessage struct {
	Pin   byte
	Value uint16
}

// Encode implements Message.
func (m *AnalogMessage) Encode() ([]byte, error) {
	if err := checkPin(m.Pin, MaxChannelPins); err != nil {
		return nil, err
	}
	if err := check14("value", m.Value); err != nil {
		return nil, err
	}
	lsb, msb := Split14(m.Value)
	return []byte{AnalogMessageCmd | m.Pin, lsb, msb}, nil
}

// ExtendedAnalogMessage writes an analog value to any pin, with up to 28 bits.
type ExtendedAnalogMessage struct {
	Pin   byte
	Value uint32
}

// Encode implements Message.
func (m *ExtendedAnalogMessage) Encode() ([]byte, error) {
	if err := checkPin(m.Pin, MaxPins); err != nil {
		return nil, err
	}
	if m.Value > MaxExtendedValue {
		return nil, outOfRange("value", m.Value, MaxExtendedValue)
	}
	return sysex(SysexExtendedAnalog, appendUint7([]byte{m.Pin}, m.Value, 2)...), nil
}

// ServoConfigMessage attaches a servo to a pin.
type ServoConfigMessage struct {
	Pin      byte
	MinPulse uint16 // microseconds
	MaxPulse uint16 // microseconds
	Angle    uint16 // degrees
}

// Default servo pulse widths, in microseconds.
const (
	DefaultServoMinPulse uint16 = 544
	DefaultServoMaxPulse uint16 = 2400
)

// NewServoConfigMessage creates a ServoConfigMessage with the default pulse widths.
func NewServoConfigMessage(pin byte) *ServoConfigMessage {
	return &ServoConfigMessage{
		Pin:      pin,
		MinPulse: DefaultServoMinPulse,
		MaxPulse: DefaultServoMaxPulse,
	}
}

// Encode implements Message.
func (m *ServoConfigMessage) Encode() ([]byte, error) {
	if err := checkPin(m.Pin, MaxPins); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		v    uint16
	}{{"min pulse", m.MinPulse}, {"max pulse", m.MaxPulse}, {"angle", m.Angle}} {
		if err := check14(f.name, f.v); err != nil {
			return nil, err
		}
	}
	minL, minM := Split14(m.MinPulse)
	maxL, maxM := Split14(m.MaxPulse)
	angL, angM := Split14(m.Angle)
	return sysex(SysexServoConfig, m.Pin, minL, minM, maxL, maxM, angL, angM), nil
}

// SamplingIntervalMessage sets how often analog inputs are reported.
type SamplingIntervalMessage struct {
	Interval uint16 // milliseconds
}

// Encode implements Message.
func (m *SamplingIntervalMessage) Encode() ([]byte, error) {
	if err := check14("interval", m.Interval); err != nil {
		return nil, err
	}
	lsb, msb := Split14(m.Interval)
	return sysex(SysexSamplingInterval, lsb, msb), nil
}

// ReportAnalogMessage toggles reporting of an analog channel.
type ReportAnalogMessage struct {
	Pin    byte
	Enable bool
}

// Encode implements Message.
func (m *ReportAnalogMessage) Encode() ([]byte, error) {
	if err := checkPin(m.Pin, MaxChannelPins); err != nil {
		return nil, err
	}
	return []byte{ReportAnalogCmd | m.Pin, boolByte(m.Enable)}, nil
}

// ReportDigitalMessage toggles reporting of a digital port.
type ReportDigitalMessage struct {
	Port   byte
	Enable bool
}

// Encode implements Message.
func (m *ReportDigitalMessage) Encode() ([]byte, error) {
	if m.Port >= MaxPorts {
		return nil, outOfRange("port", uint32(m.Port), MaxPorts-1)
	}
	return []byte{ReportDigitalCmd | m.Port, boolByte(m.Enable)}, nil
}

// ProtocolVersionQueryMessage asks the board for its protocol version.
// The board answers with ProtocolVersionMessage. The query is a single
// command byte and is never produced by Parser.
type ProtocolVersionQueryMessage struct{}

// Encode implements Message.
func (m *ProtocolVersionQueryMessage) Encode() ([]byte, error) {
	return []byte{ProtocolVersionCmd}, nil
}

// ProtocolVersionMessage reports the protocol version of the firmware.
type ProtocolVersionMessage struct {
	Major byte
	Minor byte
}

// Encode implements Message.
func (m *ProtocolVersionMessage) Encode() ([]byte, error) {
	if !is7Bit([]byte{m.Major, m.Minor}) {
		return nil, outOfRange("version", uint32(m.Major)<<8|uint32(m.Minor), 0x7F7F)
	}
	return []byte{ProtocolVersionCmd, m.Major, m.Minor}, nil
}

// ResetMessage resets the firmware to its power-on state.
type ResetMessage struct{}

// Encode implements Message.
func (m *ResetMessage) Encode() ([]byte, error) {
	return []byte{SystemResetCmd}, nil
}

// FirmwareQueryMessage asks for the firmware name and version.
type FirmwareQueryMessage struct{}

// Encode implements Message.
func (m *FirmwareQueryMessage) Encode() ([]byte, error) {
	return sysex(SysexReportFirmware), nil
}

// FirmwareMessage reports the firmware name and version.
type FirmwareMessage struct {
	Major byte
	Minor byte
	Name  string
}

// Encode implements Message.
func (m *FirmwareMessage) Encode() ([]byte, error) {
	if !is7Bit([]byte{m.Major, m.Minor}) {
		return nil, outOfRange("version", uint32(m.Major)<<8|uint32(m.Minor), 0x7F7F)
	}
	return sysex(SysexReportFirmware, append([]byte{m.Major, m.Minor}, Encode7([]byte(m.Name))...)...), nil
}

// CapabilityQueryMessage asks for the modes supported by every pin.
type CapabilityQueryMessage struct{}

// Encode implements Message.
func (m *CapabilityQueryMessage) Encode() ([]byte, error) {
	return sysex(SysexCapabilityQuery), nil
}

// CapabilityMessage lists the supported modes of every pin, indexed by pin number.
type CapabilityMessage struct {
	Pins []PinCapabilities
}

// Encode implements Message.
func (m *CapabilityMessage) Encode() ([]byte, error) {
	if len(m.Pins) > MaxPins {
		return nil, outOfRange("pins", uint32(len(m.Pins)), MaxPins)
	}
	var payload []byte
	for _, caps := range m.Pins {
		for _, mode := range caps.Modes() {
			res := caps[mode]
			if mode >= PinMode(capabilityPinDelimiter) || res > sevenBitMask {
				return nil, outOfRange("capability", uint32(mode)<<8|uint32(res), 0x7E7F)
			}
			payload = append(payload, byte(mode), res)
		}
		payload = append(payload, capabilityPinDelimiter)
	}
	return sysex(SysexCapabilityResponse, payload...), nil
}

// AnalogMappingQueryMessage asks which pins carry analog channels.
type AnalogMappingQueryMessage struct{}

// Encode implements Message.
func (m *AnalogMappingQueryMessage) Encode() ([]byte, error) {
	return sysex(SysexAnalogMappingQuery), nil
}

// AnalogMappingMessage maps every pin to its analog channel, or NoAnalogChannel.
type AnalogMappingMessage struct {
	Channels []byte
}

// Encode implements Message.
func (m *AnalogMappingMessage) Encode() ([]byte, error) {
	if !is7Bit(m.Channels) {
		return nil, outOfRange("channel", 0x80, uint32(NoAnalogChannel))
	}
	return sysex(SysexAnalogMappingResponse, m.Channels...), nil
}

// PinChannels returns analog channel to pin mapping.
func (m *AnalogMappingMessage) PinChannels() map[byte]byte {
	res := make(map[byte]byte)
	for pin, ch := range m.Channels {
		if ch != NoAnalogChannel {
			res[ch] = byte(pin)
		}
	}
	return res
}

// PinStateQueryMessage asks for the mode and state of a pin.
type PinStateQueryMessage struct {
	Pin byte
}

// Encode implements Message.
func (m *PinStateQueryMessage) Encode() ([]byte, error) {
	if err := checkPin(m.Pin, MaxPins); err != nil {
		return nil, err
	}
	return sysex(SysexPinStateQuery, m.Pin), nil
}

// PinStateMessage reports the mode and state of a pin.
type PinStateMessage struct {
	Pin   byte
	Mode  PinMode
	State uint32
}

// Encode implements Message.
func (m *PinStateMessage) Encode() ([]byte, error) {
	if err := checkPin(m.Pin, MaxPins); err != nil {
		return nil, err
	}
	if m.Mode > PinMode(sevenBitMask) {
		return nil, outOfRange("mode", uint32(m.Mode), uint32(sevenBitMask))
	}
	if m.State > MaxExtendedValue {
		return nil, outOfRange("state", m.State, MaxExtendedValue)
	}
	return sysex(SysexPinStateResponse, appendUint7([]byte{m.Pin, byte(m.Mode)}, m.State, 1)...), nil
}

// StringMessage carries a text message from the firmware.
type StringMessage struct {
	Text string
}

// Encode implements Message.
func (m *StringMessage) Encode() ([]byte, error) {
	return sysex(SysexStringData, Encode7([]byte(m.Text))...), nil
}

// I2CConfigMessage configures the I2C bus.
type I2CConfigMessage struct {
	Delay uint16 // microseconds between write and read
}

// Encode implements Message.
func (m *I2CConfigMessage) Encode() ([]byte, error) {
	if err := check14("delay", m.Delay); err != nil {
		return nil, err
	}
	lsb, msb := Split14(m.Delay)
	return sysex(SysexI2CConfig, lsb, msb), nil
}

// I2CMode is the read/write mode of an I2C request.
type I2CMode byte

// I2C request modes.
const (
	I2CWrite          I2CMode = 0
	I2CReadOnce       I2CMode = 1
	I2CReadContinuous I2CMode = 2
	I2CStopReading    I2CMode = 3
)

const (
	maxI2CAddress     uint16 = 0x3FF
	i2cTenBitMode     byte   = 0x20
	i2cModeShift             = 3
	i2cAddressMSBMask byte   = 0x07
)

// I2CRequestMessage reads from or writes to an I2C device.
// Addresses above 0x7F use 10-bit addressing.
type I2CRequestMessage struct {
	Address uint16
	Mode    I2CMode
	Data    []byte
}

// Encode implements Message.
func (m *I2CRequestMessage) Encode() ([]byte, error) {
	if m.Address > maxI2CAddress {
		return nil, outOfRange("address", uint32(m.Address), uint32(maxI2CAddress))
	}
	if m.Mode > I2CStopReading {
		return nil, outOfRange("mode", uint32(m.Mode), uint32(I2CStopReading))
	}
	ctl := byte(m.Mode)<<i2cModeShift | byte(m.Address>>7)&i2cAddressMSBMask
	if m.Address > uint16(sevenBitMask) {
		ctl |= i2cTenBitMode
	}
	payload := append([]byte{byte(m.Address) & sevenBitMask, ctl}, Encode7(m.Data)...)
	return sysex(SysexI2CRequest, payload...), nil
}

// I2CReplyMessage carries data read from an I2C device.
type I2CReplyMessage struct {
	Address  uint16
	Register uint16
	Data     []byte
}

// Encode implements Message.
func (m *I2CReplyMessage) Encode() ([]byte, error) {
	if err := check14("address", m.Address); err != nil {
		return nil, err
	}
	if err := check14("register", m.Register); err != nil {
		return nil, err
	}
	addrL, addrM := Split14(m.Address)
	regL, regM := Split14(m.Register)
	payload := append([]byte{addrL, addrM, regL, regM}, Encode7(m.Data)...)
	return sysex(SysexI2CReply, payload...), nil
}

// SysexMessage is a sysex frame without a dedicated type.
type SysexMessage struct {
	Command SysexCmd
	Data    []byte
}

// Encode implements Message.
func (m *SysexMessage) Encode() ([]byte, error) {
	if byte(m.Command) > sevenBitMask || !is7Bit(m.Data) {
		return nil, outOfRange("sysex byte", 0x80, uint32(sevenBitMask))
	}
	if len(m.Data)+1 > MaxSysexBytes {
		return nil, outOfRange("sysex length", uint32(len(m.Data)+1), MaxSysexBytes)
	}
	return sysex(m.Command, m.Data...), nil
}
