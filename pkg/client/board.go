package client

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tasosval/sharpduino/pkg/firmata"
)

// Pin is a snapshot of a board pin.
type Pin struct {
	Number byte
	Mode   firmata.PinMode
	Value  uint32
	// Capabilities is shared between snapshots and must not be modified.
	Capabilities firmata.PinCapabilities
	// AnalogChannel is firmata.NoAnalogChannel for digital only pins.
	AnalogChannel byte
}

// IsAnalog tells if the pin has an analog input channel.
func (p Pin) IsAnalog() bool {
	return p.AnalogChannel != firmata.NoAnalogChannel
}

// Version is a major.minor version pair.
type Version struct {
	Major byte
	Minor byte
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// FirmwareInfo identifies the firmware of a board.
type FirmwareInfo struct {
	Name    string
	Version Version
}

func (f FirmwareInfo) String() string {
	return fmt.Sprintf("%s:%s", f.Name, f.Version)
}

// board is the client side model of the pins.
type board struct {
	lock       sync.RWMutex
	protocol   Version
	firmware   FirmwareInfo
	pins       []Pin
	discovered bool
}

func newPin(n byte) Pin {
	return Pin{Number: n, AnalogChannel: firmata.NoAnalogChannel}
}

func (b *board) reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.pins, b.discovered = nil, false
}

func (b *board) setProtocolVersion(v Version) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.protocol = v
}

func (b *board) setFirmware(f FirmwareInfo) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.firmware = f
}

func (b *board) setCapabilities(caps []firmata.PinCapabilities) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.pins = make([]Pin, len(caps))
	for n, c := range caps {
		b.pins[n] = newPin(byte(n))
		b.pins[n].Capabilities = c
	}
	b.discovered = true
}

func (b *board) setAnalogMapping(channels []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for n := range b.pins {
		if n < len(channels) {
			b.pins[n].AnalogChannel = channels[n]
		}
	}
}

func (b *board) numPins() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.pins)
}

// pin returns the pin to update. Without discovery, pins are added on demand.
func (b *board) pin(n byte) *Pin {
	if int(n) >= len(b.pins) {
		if b.discovered || n >= firmata.MaxPins {
			return nil
		}
		for i := len(b.pins); i <= int(n); i++ {
			b.pins = append(b.pins, newPin(byte(i)))
		}
	}
	return &b.pins[n]
}

// check validates the pin and mode before a command is sent.
func (b *board) check(op string, n byte, mode *firmata.PinMode) error {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if n >= firmata.MaxPins || (b.discovered && int(n) >= len(b.pins)) {
		return &PinError{Pin: n, Op: op, Err: ErrNoSuchPin}
	}
	if mode != nil && b.discovered && !b.pins[n].Capabilities.Supports(*mode) {
		return &PinError{Pin: n, Op: op, Err: fmt.Errorf("%w: %s", ErrModeNotSupported, *mode)}
	}
	return nil
}

func (b *board) setMode(n byte, mode firmata.PinMode) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if p := b.pin(n); p != nil {
		p.Mode = mode
	}
}

func (b *board) setValue(n byte, value uint32) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if p := b.pin(n); p != nil {
		p.Value = value
	}
}

func (b *board) setPinState(n byte, mode firmata.PinMode, state uint32) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if p := b.pin(n); p != nil {
		p.Mode, p.Value = mode, state
	}
}

// checkOutput validates pin n is a digital output. Without discovery
// the mode of a pin is unknown, so any existing pin is accepted.
func (b *board) checkOutput(op string, n byte) error {
	if err := b.check(op, n, nil); err != nil {
		return err
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	if b.discovered && b.pins[n].Mode != firmata.PinModeOutput {
		return &PinError{Pin: n, Op: op, Err: fmt.Errorf("%w: pin is in %s mode", ErrModeNotSupported, b.pins[n].Mode)}
	}
	return nil
}

// setOutput records a digital output written to pin n.
// Without discovery the pin is taken as an output from now on.
func (b *board) setOutput(n byte, value bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if p := b.pin(n); p != nil {
		if !b.discovered {
			p.Mode = firmata.PinModeOutput
		}
		p.Value = uint32(boolValue(value))
	}
}

// portOutput returns the port value with pin n set to value.
// Other output pins keep their values from the model, the bits of
// pins in any other mode are 0.
func (b *board) portOutput(n byte, value bool) (port, values byte) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	port = n / 8
	var pins [8]bool
	for i := range pins {
		if p := int(port)*8 + i; p < len(b.pins) && b.pins[p].Mode == firmata.PinModeOutput {
			pins[i] = b.pins[p].Value != 0
		}
	}
	pins[n%8] = value
	return port, firmata.PortValue(pins)
}

// setPortInputs updates input pins of a port. Outputs are left alone
// as the board only reports inputs.
func (b *board) setPortInputs(port, values byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i, on := range firmata.PinValues(values) {
		n := int(port)*8 + i
		if n >= len(b.pins) {
			break
		}
		if p := &b.pins[n]; p.Mode == firmata.PinModeInput || p.Mode == firmata.PinModeInputPullUp {
			p.Value = uint32(boolValue(on))
		}
	}
}

func (b *board) setAnalogValue(channel byte, value uint32) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for n := range b.pins {
		if b.pins[n].AnalogChannel == channel {
			b.pins[n].Value = value
			return
		}
	}
}

func (b *board) snapshot() []Pin {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return append([]Pin(nil), b.pins...)
}

func (b *board) get(n byte) (Pin, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if int(n) >= len(b.pins) {
		return Pin{}, false
	}
	return b.pins[n], true
}

// analogPins returns pins with analog channels, ordered by channel.
func (b *board) analogPins() (pins []Pin) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for _, p := range b.pins {
		if p.IsAnalog() {
			pins = append(pins, p)
		}
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].AnalogChannel < pins[j].AnalogChannel })
	return
}

func (b *board) info() (Version, FirmwareInfo) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.protocol, b.firmware
}

func boolValue(v bool) byte {
	if v {
		return 1
	}
	return 0
}
