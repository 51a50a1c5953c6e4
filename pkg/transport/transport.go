// Package transport provides the byte links to Firmata boards.
package transport

import (
	"strings"
	"time"

	"github.com/golang/glog"
)

// DefaultBaudRate is the baud rate of StandardFirmata.
const DefaultBaudRate = 57600

// Config describes the link to open.
type Config struct {
	// Port is a serial device name, e.g. "COM3" or "/dev/ttyACM0",
	// or a ws:// or wss:// URL of a Firmata websocket bridge.
	Port     string
	BaudRate int
	// ReadTimeout bounds a single read. 0 blocks until data arrives.
	ReadTimeout time.Duration
}

// IsWebsocket tells if Port is a websocket URL.
func (c Config) IsWebsocket() bool {
	return strings.HasPrefix(c.Port, "ws://") || strings.HasPrefix(c.Port, "wss://")
}

// Open opens the link described by cfg.
func Open(cfg Config) (*Conn, error) {
	if cfg.Port == "" {
		return nil, ErrNoPort
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	var (
		conn *Conn
		err  error
	)
	if cfg.IsWebsocket() {
		conn, err = dialWebsocket(cfg)
	} else {
		conn, err = openSerial(cfg)
	}
	if err != nil {
		return nil, &OpenError{Port: cfg.Port, Err: err}
	}
	glog.Infof("transport: opened %s", cfg.Port)
	return conn, nil
}
