package sh

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/tasosval/sharpduino/pkg/client"
	"github.com/tasosval/sharpduino/pkg/firmata"
	"github.com/tasosval/sharpduino/pkg/transport"
)

// ParsePin parses a pin number.
func ParsePin(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", s)
	}
	return byte(n), nil
}

// ParseLevel parses a digital level: 0/1, low/high, off/on.
func ParseLevel(s string) (bool, error) {
	switch s {
	case "1", "high", "on", "true":
		return true, nil
	case "0", "low", "off", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid level %q", s)
}

func parseUint(name, s string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}

func expectArgs(c *ishell.Context, usage string, counts ...int) bool {
	for _, n := range counts {
		if len(c.Args) == n {
			return true
		}
	}
	c.Err(fmt.Errorf("usage: %s", usage))
	return false
}

// ParseServoConfig parses PIN [MIN MAX [ANGLE]]. Pulse widths default
// to the ones of the Arduino Servo library.
func ParseServoConfig(args []string) (*firmata.ServoConfigMessage, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("pin expected")
	}
	pin, err := ParsePin(args[0])
	if err != nil {
		return nil, err
	}
	msg := firmata.NewServoConfigMessage(pin)
	fields := []*uint16{&msg.MinPulse, &msg.MaxPulse, &msg.Angle}
	for n, arg := range args[1:] {
		if n >= len(fields) {
			return nil, fmt.Errorf("unexpected %q", arg)
		}
		v, err := parseUint("pulse", arg, 14)
		if err != nil {
			return nil, err
		}
		*fields[n] = uint16(v)
	}
	return msg, nil
}

// FormatPin prints a pin in one line for display.
func FormatPin(pin client.Pin) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%3d %-11s %6d", pin.Number, pin.Mode, pin.Value)
	if pin.IsAnalog() {
		fmt.Fprintf(&w, " A%d", pin.AnalogChannel)
	}
	if len(pin.Capabilities) > 0 {
		fmt.Fprintf(&w, " %s", pin.Capabilities)
	}
	return w.String()
}

// FormatPins prints pins one per line.
func FormatPins(pins []client.Pin) string {
	var w bytes.Buffer
	for n, pin := range pins {
		if n > 0 {
			w.WriteByte('\n')
		}
		w.WriteString(FormatPin(pin))
	}
	return w.String()
}

type boardInfo struct {
	Port     string `json:"port"`
	State    string `json:"state"`
	Firmware string `json:"firmware"`
	Protocol string `json:"protocol"`
	Pins     int    `json:"pins"`
	Analog   int    `json:"analog"`
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := transport.ListPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				ports = []string{}
			}
			s.Print(c, ports, func() string {
				if len(ports) == 0 {
					return "No serial ports found"
				}
				var w bytes.Buffer
				for n, port := range ports {
					if n > 0 {
						w.WriteByte('\n')
					}
					w.WriteString(port)
				}
				return w.String()
			})
		},
	}

	// ConnectCmd opens a board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "PORT",
		Func: func(c *ishell.Context) {
			if !expectArgs(c, "connect PORT", 1) {
				return
			}
			if err := ShellFrom(c).Connect(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes current board.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// InfoCmd prints firmware and protocol version.
	InfoCmd = ishell.Cmd{
		Name: "info",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context, cli *client.Client) {
			s := ShellFrom(c)
			info := boardInfo{
				Port:     s.Conn.Port,
				State:    cli.State().String(),
				Firmware: cli.Firmware().String(),
				Protocol: cli.ProtocolVersion().String(),
				Pins:     len(cli.Pins()),
				Analog:   len(cli.AnalogPins()),
			}
			s.Print(c, &info, func() string {
				return fmt.Sprintf("%s %s firmware %s protocol %s, %d pins, %d analog",
					info.Port, info.State, info.Firmware, info.Protocol, info.Pins, info.Analog)
			})
		}),
	}

	// PinsCmd prints pins.
	PinsCmd = ishell.Cmd{
		Name:    "pins",
		Aliases: []string{"p"},
		Help:    "[PIN]",
		Func: MustBeConnected(func(c *ishell.Context, cli *client.Client) {
			if !expectArgs(c, "pins [PIN]", 0, 1) {
				return
			}
			pins := cli.Pins()
			if len(c.Args) == 1 {
				n, err := ParsePin(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				pin, ok := cli.Pin(n)
				if !ok {
					c.Err(&client.PinError{Pin: n, Op: "show", Err: client.ErrNoSuchPin})
					return
				}
				pins = []client.Pin{pin}
			}
			ShellFrom(c).Print(c, pins, func() string { return FormatPins(pins) })
		}),
	}

	// ModeCmd sets the mode of a pin.
	ModeCmd = ishell.Cmd{
		Name:    "mode",
		Aliases: []string{"m"},
		Help:    "PIN MODE",
		Func: MustBeConnected(func(c *ishell.Context, cli *client.Client) {
			if !expectArgs(c, "mode PIN MODE", 2) {
				return
			}
			pin, err := ParsePin(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			mode, err := firmata.ParsePinMode(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			if err := cli.SetPinMode(pin, mode); err != nil {
				c.Err(err)
			}
		}),
	}

	// DigitalCmd sets a digital output.
	DigitalCmd = ishell.Cmd{
		Name: "do",
		Help: "PIN 0|1",
		Func: MustBeConnected(func(c *ishell.Context, cli *client.Client) {
			if !expectArgs(c, "do PIN 0|1", 2) {
				return
			}
			pin, err := ParsePin(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			level, err := ParseLevel(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			if err := cli.SetDigitalOutput(pin, level); err != nil {
				c.Err(err)
			}
		}),
	}

	// AnalogCmd writes a PWM or servo value.
	AnalogCmd = ishell.Cmd{
		Name:    "analog",
		Aliases: []string{"a"},
		Help:    "PIN VALUE",
		Func: MustBeConnected(func(c *ishell.Context, cli *client.Client) {
			if !expectArgs(c, "analog PIN VALUE", 2) {
				return
			}
			pin, err := ParsePin(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			val, err := parseUint("value", c.Args[1], 32)
			if err != nil {
				c.Err(err)
				return
			}
			if err := cli.SendAnalogValue(pin, uint32(val)); err != nil {
				c.Err(err)
			}
		}),
	}

	// ServoCmd attaches a servo.
	ServoCmd = ishell.Cmd{
		Name: "servo",
		Help: "PIN [MIN MAX [ANGLE]]",
		Func: MustBeConnected(func(c *ishell.Context, cli *client.Client) {
			if !expectArgs(c, "servo PIN [MIN MAX [ANGLE]]", 1, 3, 4) {
				return
			}
			cfg, err := ParseServoConfig(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			err = cli.SendServoConfig(cfg.Pin, cfg.MinPulse, cfg.MaxPulse, cfg.Angle)
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// SamplingCmd sets the analog sampling interval.
	SamplingCmd = ishell.Cmd{
		Name: "sampling",
		Help: "MS",
		Func: MustBeConnected(func(c *ishell.Context, cli *client.Client) {
			if !expectArgs(c, "sampling MS", 1) {
				return
			}
			ms, err := parseUint("interval", c.Args[0], 32)
			if err != nil {
				c.Err(err)
				return
			}
			if err := cli.SetSamplingInterval(time.Duration(ms) * time.Millisecond); err != nil {
				c.Err(err)
			}
		}),
	}
)
