package firmata

import (
	"fmt"
	"sort"
	"strings"
)

// PinMode is the mode a pin is configured with.
type PinMode byte

// Pin modes.
const (
	PinModeInput       PinMode = 0x00
	PinModeOutput      PinMode = 0x01
	PinModeAnalog      PinMode = 0x02
	PinModePWM         PinMode = 0x03
	PinModeServo       PinMode = 0x04
	PinModeShift       PinMode = 0x05
	PinModeI2C         PinMode = 0x06
	PinModeOneWire     PinMode = 0x07
	PinModeStepper     PinMode = 0x08
	PinModeEncoder     PinMode = 0x09
	PinModeSerial      PinMode = 0x0A
	PinModeInputPullUp PinMode = 0x0B
)

var pinModeNames = map[PinMode]string{
	PinModeInput:       "Input",
	PinModeOutput:      "Output",
	PinModeAnalog:      "Analog",
	PinModePWM:         "PWM",
	PinModeServo:       "Servo",
	PinModeShift:       "Shift",
	PinModeI2C:         "I2C",
	PinModeOneWire:     "OneWire",
	PinModeStepper:     "Stepper",
	PinModeEncoder:     "Encoder",
	PinModeSerial:      "Serial",
	PinModeInputPullUp: "InputPullUp",
}

func (m PinMode) String() string {
	if name, ok := pinModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", byte(m))
}

// ParsePinMode parses a mode name, case insensitive.
func ParsePinMode(s string) (PinMode, error) {
	for mode, name := range pinModeNames {
		if strings.EqualFold(name, s) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown pin mode %q", s)
}

// PinCapabilities maps supported modes of a pin to their resolution in bits.
type PinCapabilities map[PinMode]byte

// Supports tells if the mode is supported.
func (c PinCapabilities) Supports(mode PinMode) bool {
	_, ok := c[mode]
	return ok
}

// Modes returns the supported modes in ascending order.
func (c PinCapabilities) Modes() []PinMode {
	modes := make([]PinMode, 0, len(c))
	for mode := range c {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

func (c PinCapabilities) String() string {
	items := make([]string, 0, len(c))
	for _, mode := range c.Modes() {
		items = append(items, fmt.Sprintf("%s:%d", mode, c[mode]))
	}
	return "[" + strings.Join(items, ", ") + "]"
}
