package client

import (
	"context"

	"github.com/golang/glog"

	"github.com/tasosval/sharpduino/pkg/firmata"
)

type stage int

const (
	stageProtocolVersion stage = iota
	stageFirmware
	stageCapabilities
	stageAnalogMapping
	stagePinStates
	stageDone
)

// startHandshake silences reports left over from a previous host and
// queries the protocol version.
func (c *Client) startHandshake() error {
	c.parser.Reset()
	c.stage = stageProtocolVersion
	if !c.opts.SkipDiscovery {
		c.board.reset()
	}
	msgs := make([]firmata.Message, 0, firmata.MaxPorts+firmata.MaxChannelPins+1)
	for port := byte(0); port < firmata.MaxPorts; port++ {
		msgs = append(msgs, &firmata.ReportDigitalMessage{Port: port})
	}
	for ch := byte(0); ch < firmata.MaxChannelPins; ch++ {
		msgs = append(msgs, &firmata.ReportAnalogMessage{Pin: ch})
	}
	msgs = append(msgs, &firmata.ProtocolVersionQueryMessage{})
	return c.send(msgs...)
}

// handle updates the board model and advances the handshake.
func (c *Client) handle(ctx context.Context, s *session, msg firmata.Message) error {
	switch m := msg.(type) {
	case *firmata.ProtocolVersionMessage:
		c.board.setProtocolVersion(Version{Major: m.Major, Minor: m.Minor})
		if c.stage == stageProtocolVersion {
			c.stage = stageFirmware
			return c.send(&firmata.FirmwareQueryMessage{})
		}
	case *firmata.FirmwareMessage:
		fw := FirmwareInfo{Name: m.Name, Version: Version{Major: m.Major, Minor: m.Minor}}
		c.board.setFirmware(fw)
		// Boards announce the firmware on reset, which may arrive before
		// the version reply.
		if c.stage > stageFirmware {
			break
		}
		glog.Infof("client: firmware %s", fw)
		if c.opts.SkipDiscovery {
			return c.finishHandshake(ctx, s)
		}
		c.stage = stageCapabilities
		return c.send(&firmata.CapabilityQueryMessage{})
	case *firmata.CapabilityMessage:
		if c.stage == stageCapabilities {
			c.board.setCapabilities(m.Pins)
			c.stage = stageAnalogMapping
			return c.send(&firmata.AnalogMappingQueryMessage{})
		}
	case *firmata.AnalogMappingMessage:
		if c.stage == stageAnalogMapping {
			c.board.setAnalogMapping(m.Channels)
			c.stage = stagePinStates
			n := c.board.numPins()
			if n == 0 {
				return c.finishHandshake(ctx, s)
			}
			queries := make([]firmata.Message, n)
			for pin := range queries {
				queries[pin] = &firmata.PinStateQueryMessage{Pin: byte(pin)}
			}
			return c.send(queries...)
		}
	case *firmata.PinStateMessage:
		c.board.setPinState(m.Pin, m.Mode, m.State)
		if c.stage == stagePinStates && int(m.Pin) == c.board.numPins()-1 {
			return c.finishHandshake(ctx, s)
		}
	case *firmata.AnalogMessage:
		if c.stage == stageDone {
			c.board.setAnalogValue(m.Pin, uint32(m.Value))
		}
	case *firmata.DigitalMessage:
		c.board.setPortInputs(m.Port, m.Values)
	case *firmata.StringMessage:
		glog.Infof("client: board says %q", m.Text)
	}
	return nil
}

// finishHandshake enables reports of all discovered inputs.
func (c *Client) finishHandshake(ctx context.Context, s *session) error {
	var channels []byte
	for _, pin := range c.board.analogPins() {
		if pin.AnalogChannel < firmata.MaxChannelPins {
			channels = append(channels, pin.AnalogChannel)
		}
	}
	c.lock.Lock()
	c.reportPorts = byte((c.board.numPins() + 7) / 8)
	if c.opts.SkipDiscovery {
		c.reportPorts = 0
	}
	c.reportChannels = channels
	c.lock.Unlock()
	if err := c.send(c.reportMessages(true)...); err != nil {
		return err
	}
	c.stage = stageDone
	c.setState(ctx, Initialized)
	close(s.initCh)
	return nil
}

func (c *Client) reportMessages(enable bool) []firmata.Message {
	c.lock.Lock()
	defer c.lock.Unlock()
	msgs := make([]firmata.Message, 0, int(c.reportPorts)+len(c.reportChannels))
	for port := byte(0); port < c.reportPorts; port++ {
		msgs = append(msgs, &firmata.ReportDigitalMessage{Port: port, Enable: enable})
	}
	for _, ch := range c.reportChannels {
		msgs = append(msgs, &firmata.ReportAnalogMessage{Pin: ch, Enable: enable})
	}
	return msgs
}
