package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/tasosval/sharpduino/pkg/bridge/msgs"
	"github.com/tasosval/sharpduino/pkg/client"
	"github.com/tasosval/sharpduino/pkg/firmata"
)

// Topics relative to the device.
const (
	TopicMeta  = "meta"
	TopicState = "state"
	TopicPin   = "pin/"
	TopicCmd   = "cmd"
	TopicErr   = "err"
	TopicLog   = "log"
)

// ErrNoDevice indicates a command arrived before a device was attached.
var ErrNoDevice = errors.New("no device attached")

// Broker is the subset of Queue used by Bridge.
type Broker interface {
	Publish(topic string, payload []byte, retain bool) error
	Subscribe(topic string, handler Handler) io.Closer
}

// Subscribe implements Broker.
func (q *Queue) Subscribe(topic string, handler Handler) io.Closer {
	return q.Sub(topic, handler)
}

// Device is the board operated by Bridge. *client.Client implements it.
type Device interface {
	State() client.ConnState
	Firmware() client.FirmwareInfo
	ProtocolVersion() client.Version
	Pins() []client.Pin
	Pin(n byte) (client.Pin, bool)
	SetPinMode(pin byte, mode firmata.PinMode) error
	SetDigitalOutput(pin byte, value bool) error
	SendAnalogValue(pin byte, value uint32) error
	SetSamplingInterval(interval time.Duration) error
	SendServoConfig(pin byte, minPulse, maxPulse, angle uint16) error
}

// Meta describes the device, published retained on TopicMeta.
type Meta struct {
	Firmware string    `json:"firmware"`
	Protocol string    `json:"protocol"`
	Pins     []PinMeta `json:"pins,omitempty"`
}

// PinMeta describes a pin.
type PinMeta struct {
	Pin           byte     `json:"pin"`
	Modes         []string `json:"modes,omitempty"`
	AnalogChannel *byte    `json:"analog_channel,omitempty"`
}

// Bridge publishes board events and executes commands received from the broker.
// It implements client.MessageHandler and client.StateNotifier.
type Bridge struct {
	Broker   Broker
	DeviceID string

	lock   sync.RWMutex
	device Device
}

// NewBridge creates a Bridge.
func NewBridge(broker Broker, deviceID string) *Bridge {
	return &Bridge{Broker: broker, DeviceID: deviceID}
}

// Attach sets the device to operate.
func (b *Bridge) Attach(d Device) {
	b.lock.Lock()
	b.device = d
	b.lock.Unlock()
	if d.State() == client.Initialized {
		b.PublishMeta()
	}
}

func (b *Bridge) getDevice() Device {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.device
}

func (b *Bridge) topic(name string) string {
	return b.DeviceID + "/" + name
}

// Run subscribes to commands until ctx is done. The retained meta is
// cleared on exit to mark the device offline.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Broker.Subscribe(b.topic(TopicCmd), b.HandleCommand)
	<-ctx.Done()
	sub.Close()
	if err := b.Broker.Publish(b.topic(TopicMeta), nil, true); err != nil {
		glog.Warningf("bridge: clear meta: %v", err)
	}
	return ctx.Err()
}

// PublishMeta publishes the retained device description.
func (b *Bridge) PublishMeta() {
	d := b.getDevice()
	if d == nil || d.State() != client.Initialized {
		return
	}
	meta := Meta{
		Firmware: d.Firmware().String(),
		Protocol: d.ProtocolVersion().String(),
	}
	for _, pin := range d.Pins() {
		pm := PinMeta{Pin: pin.Number}
		for _, mode := range pin.Capabilities.Modes() {
			pm.Modes = append(pm.Modes, mode.String())
		}
		if pin.IsAnalog() {
			ch := pin.AnalogChannel
			pm.AnalogChannel = &ch
		}
		meta.Pins = append(meta.Pins, pm)
	}
	data, err := json.Marshal(&meta)
	if err != nil {
		panic(err)
	}
	b.publish(TopicMeta, data, true)
}

// StateChanged implements client.StateNotifier.
func (b *Bridge) StateChanged(ctx context.Context, state client.ConnState) {
	b.publishMsg(TopicState, &msgs.StateEvent{State: state.String()}, true)
	if state == client.Initialized {
		b.PublishMeta()
	}
}

// HandleMessage implements client.MessageHandler.
func (b *Bridge) HandleMessage(ctx context.Context, msg firmata.Message) {
	switch m := msg.(type) {
	case *firmata.DigitalMessage:
		for i := byte(0); i < 8; i++ {
			pin, ok := b.pin(m.Port*8 + i)
			if ok && (pin.Mode == firmata.PinModeInput || pin.Mode == firmata.PinModeInputPullUp) {
				b.publishPin(pin)
			}
		}
	case *firmata.AnalogMessage:
		d := b.getDevice()
		if d == nil {
			return
		}
		for _, pin := range d.Pins() {
			if pin.AnalogChannel == m.Pin {
				b.publishPin(pin)
				return
			}
		}
	case *firmata.PinStateMessage:
		if pin, ok := b.pin(m.Pin); ok {
			b.publishPin(pin)
		}
	case *firmata.StringMessage:
		b.publish(TopicLog, []byte(m.Text), false)
	}
}

func (b *Bridge) pin(n byte) (client.Pin, bool) {
	if d := b.getDevice(); d != nil {
		return d.Pin(n)
	}
	return client.Pin{}, false
}

func (b *Bridge) publishPin(pin client.Pin) {
	b.publishMsg(TopicPin+strconv.Itoa(int(pin.Number)), &msgs.PinEvent{
		Pin:   uint32(pin.Number),
		Mode:  uint32(pin.Mode),
		Value: pin.Value,
	}, false)
}

func (b *Bridge) publishMsg(name string, msg msgs.Message, retain bool) {
	data, err := msgs.Marshal(msg)
	if err != nil {
		glog.Errorf("bridge: encode %T: %v", msg, err)
		return
	}
	b.publish(name, data, retain)
}

func (b *Bridge) publish(name string, payload []byte, retain bool) {
	if err := b.Broker.Publish(b.topic(name), payload, retain); err != nil {
		glog.Warningf("bridge: publish %s: %v", name, err)
	}
}

// HandleCommand executes a command received on TopicCmd.
// Failures are published on TopicErr.
func (b *Bridge) HandleCommand(topic string, payload []byte) {
	var typeID uint32
	err := func() error {
		var typed msgs.Typed
		if err := msgs.UnmarshalTyped(payload, &typed); err != nil {
			return err
		}
		typeID = typed.TypeId
		if !typed.IsCommand() {
			return fmt.Errorf("not a command: %x", typeID)
		}
		msg, err := typed.Decode()
		if err != nil {
			return err
		}
		return b.execute(msg)
	}()
	if err != nil {
		glog.Warningf("bridge: command %x: %v", typeID, err)
		b.publishMsg(TopicErr, &msgs.CommandErr{TypeId: typeID, Message: err.Error()}, false)
	}
}

func (b *Bridge) execute(msg msgs.Message) error {
	d := b.getDevice()
	if d == nil {
		return ErrNoDevice
	}
	switch m := msg.(type) {
	case *msgs.SetPinMode:
		pin, err := toByte("pin", m.Pin)
		if err != nil {
			return err
		}
		mode, err := toByte("mode", m.Mode)
		if err != nil {
			return err
		}
		return d.SetPinMode(pin, firmata.PinMode(mode))
	case *msgs.DigitalWrite:
		pin, err := toByte("pin", m.Pin)
		if err != nil {
			return err
		}
		return d.SetDigitalOutput(pin, m.Value)
	case *msgs.AnalogWrite:
		pin, err := toByte("pin", m.Pin)
		if err != nil {
			return err
		}
		return d.SendAnalogValue(pin, m.Value)
	case *msgs.SamplingInterval:
		return d.SetSamplingInterval(time.Duration(m.IntervalMs) * time.Millisecond)
	case *msgs.ServoConfig:
		pin, err := toByte("pin", m.Pin)
		if err != nil {
			return err
		}
		var pulses [3]uint16
		for i, v := range []uint32{m.MinPulse, m.MaxPulse, m.Angle} {
			if v > uint32(firmata.Max14Bit) {
				return fmt.Errorf("%w: servo config %d", firmata.ErrValueOutOfRange, v)
			}
			pulses[i] = uint16(v)
		}
		return d.SendServoConfig(pin, pulses[0], pulses[1], pulses[2])
	}
	return fmt.Errorf("unsupported command %T", msg)
}

func toByte(name string, v uint32) (byte, error) {
	if v > 0xFF {
		return 0, fmt.Errorf("%w: %s %d", firmata.ErrValueOutOfRange, name, v)
	}
	return byte(v), nil
}
