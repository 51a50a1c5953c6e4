package firmata

import "fmt"

// Command bytes. Commands in the 0x80-0xEF range carry a port or pin
// number in the low nibble.
const (
	DigitalMessageCmd     byte = 0x90
	ReportAnalogCmd       byte = 0xC0
	ReportDigitalCmd      byte = 0xD0
	AnalogMessageCmd      byte = 0xE0
	StartSysex            byte = 0xF0
	SetPinModeCmd         byte = 0xF4
	SetDigitalPinValueCmd byte = 0xF5
	EndSysex              byte = 0xF7
	ProtocolVersionCmd    byte = 0xF9
	SystemResetCmd        byte = 0xFF

	commandMask byte = 0xF0
	channelMask byte = 0x0F
)

// Protocol limits.
const (
	MaxPins        = 128
	MaxChannelPins = 16
	MaxPorts       = 16
	MaxSysexBytes  = 1024

	Max14Bit uint16 = 0x3FFF
	// MaxExtendedValue is the largest value carried by ExtendedAnalogMessage.
	MaxExtendedValue uint32 = 1<<28 - 1

	// NoAnalogChannel marks a pin without analog input in AnalogMappingMessage.
	NoAnalogChannel byte = 0x7F

	capabilityPinDelimiter byte = 0x7F
)

// SysexCmd is the command byte following StartSysex.
type SysexCmd byte

// Sysex commands.
const (
	SysexExtendedAnalog        SysexCmd = 0x6F
	SysexAnalogMappingQuery    SysexCmd = 0x69
	SysexAnalogMappingResponse SysexCmd = 0x6A
	SysexCapabilityQuery       SysexCmd = 0x6B
	SysexCapabilityResponse    SysexCmd = 0x6C
	SysexPinStateQuery         SysexCmd = 0x6D
	SysexPinStateResponse      SysexCmd = 0x6E
	SysexServoConfig           SysexCmd = 0x70
	SysexStringData            SysexCmd = 0x71
	SysexI2CRequest            SysexCmd = 0x76
	SysexI2CReply              SysexCmd = 0x77
	SysexI2CConfig             SysexCmd = 0x78
	SysexReportFirmware        SysexCmd = 0x79
	SysexSamplingInterval      SysexCmd = 0x7A
)

var sysexCmdNames = map[SysexCmd]string{
	SysexExtendedAnalog:        "ExtendedAnalog",
	SysexAnalogMappingQuery:    "AnalogMappingQuery",
	SysexAnalogMappingResponse: "AnalogMappingResponse",
	SysexCapabilityQuery:       "CapabilityQuery",
	SysexCapabilityResponse:    "CapabilityResponse",
	SysexPinStateQuery:         "PinStateQuery",
	SysexPinStateResponse:      "PinStateResponse",
	SysexServoConfig:           "ServoConfig",
	SysexStringData:            "StringData",
	SysexI2CRequest:            "I2CRequest",
	SysexI2CReply:              "I2CReply",
	SysexI2CConfig:             "I2CConfig",
	SysexReportFirmware:        "ReportFirmware",
	SysexSamplingInterval:      "SamplingInterval",
}

func (c SysexCmd) String() string {
	if name, ok := sysexCmdNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Sysex(0x%02X)", byte(c))
}
