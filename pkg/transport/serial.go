package transport

import (
	"go.bug.st/serial"
)

// serialOpen is replaced in tests.
var serialOpen = serial.Open

func openSerial(cfg Config) (*Conn, error) {
	port, err := serialOpen(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			port.Close()
			return nil, err
		}
	}
	// Drop whatever the board sent before the port was opened.
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, err
	}
	return NewConn(port, cfg.Port), nil
}

// ListPorts returns the names of the serial ports found.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
