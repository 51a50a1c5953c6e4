package client

import (
	"fmt"
	"time"

	"github.com/tasosval/sharpduino/pkg/firmata"
)

// SendMessage sends any message to the board.
func (c *Client) SendMessage(msg firmata.Message) error {
	if c.State() != Initialized {
		return ErrNotInitialized
	}
	return c.send(msg)
}

// SetPinMode configures the mode of a pin.
func (c *Client) SetPinMode(pin byte, mode firmata.PinMode) error {
	if c.State() != Initialized {
		return ErrNotInitialized
	}
	if err := c.board.check("set mode of", pin, &mode); err != nil {
		return err
	}
	if err := c.send(&firmata.PinModeMessage{Pin: pin, Mode: mode}); err != nil {
		return err
	}
	c.board.setMode(pin, mode)
	return nil
}

// SetDigitalOutput sets a digital output by writing the whole port.
// The pin must be in Output mode. Values of the other output pins of
// the port come from the model.
func (c *Client) SetDigitalOutput(pin byte, value bool) error {
	if c.State() != Initialized {
		return ErrNotInitialized
	}
	if err := c.board.checkOutput("set output of", pin); err != nil {
		return err
	}
	port, values := c.board.portOutput(pin, value)
	if err := c.send(&firmata.DigitalMessage{Port: port, Values: values}); err != nil {
		return err
	}
	c.board.setOutput(pin, value)
	return nil
}

// DigitalWrite sets a single digital output pin, leaving the rest of the port untouched.
func (c *Client) DigitalWrite(pin byte, value bool) error {
	if c.State() != Initialized {
		return ErrNotInitialized
	}
	if err := c.board.check("write", pin, nil); err != nil {
		return err
	}
	if err := c.send(&firmata.DigitalWriteMessage{Pin: pin, Value: value}); err != nil {
		return err
	}
	c.board.setValue(pin, uint32(boolValue(value)))
	return nil
}

// SetSamplingInterval sets how often the board reports analog inputs.
// The interval is sent in milliseconds.
func (c *Client) SetSamplingInterval(interval time.Duration) error {
	if c.State() != Initialized {
		return ErrNotInitialized
	}
	ms := interval / time.Millisecond
	if ms < 0 || ms > time.Duration(firmata.Max14Bit) {
		return fmt.Errorf("%w: sampling interval %v", firmata.ErrValueOutOfRange, interval)
	}
	return c.send(&firmata.SamplingIntervalMessage{Interval: uint16(ms)})
}

// SendServoConfig attaches a servo to a pin.
func (c *Client) SendServoConfig(pin byte, minPulse, maxPulse, angle uint16) error {
	if c.State() != Initialized {
		return ErrNotInitialized
	}
	if err := c.board.check("configure servo on", pin, nil); err != nil {
		return err
	}
	err := c.send(&firmata.ServoConfigMessage{
		Pin:      pin,
		MinPulse: minPulse,
		MaxPulse: maxPulse,
		Angle:    angle,
	})
	if err != nil {
		return err
	}
	c.board.setMode(pin, firmata.PinModeServo)
	return nil
}

// SendAnalogValue writes a PWM or servo value. Pins above 15 and values
// wider than 14 bits are sent as extended analog messages.
func (c *Client) SendAnalogValue(pin byte, value uint32) error {
	if c.State() != Initialized {
		return ErrNotInitialized
	}
	if err := c.board.check("write analog", pin, nil); err != nil {
		return err
	}
	var msg firmata.Message
	if pin < firmata.MaxChannelPins && value <= uint32(firmata.Max14Bit) {
		msg = &firmata.AnalogMessage{Pin: pin, Value: uint16(value)}
	} else {
		msg = &firmata.ExtendedAnalogMessage{Pin: pin, Value: value}
	}
	if err := c.send(msg); err != nil {
		return err
	}
	c.board.setValue(pin, value)
	return nil
}

// ReportAnalog toggles reporting of an analog channel.
func (c *Client) ReportAnalog(channel byte, enable bool) error {
	return c.SendMessage(&firmata.ReportAnalogMessage{Pin: channel, Enable: enable})
}

// ReportDigital toggles reporting of a digital port.
func (c *Client) ReportDigital(port byte, enable bool) error {
	return c.SendMessage(&firmata.ReportDigitalMessage{Port: port, Enable: enable})
}

// QueryPinState asks the board for the state of a pin.
// The model is updated when the reply arrives.
func (c *Client) QueryPinState(pin byte) error {
	if c.State() != Initialized {
		return ErrNotInitialized
	}
	if err := c.board.check("query", pin, nil); err != nil {
		return err
	}
	return c.send(&firmata.PinStateQueryMessage{Pin: pin})
}
