// Package env provides the common options to open a board from
// command line flags and environment variables.
package env

import (
	"context"
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/tasosval/sharpduino/pkg/bridge/mqtt"
	"github.com/tasosval/sharpduino/pkg/client"
	"github.com/tasosval/sharpduino/pkg/transport"
)

// Environment variables overriding the defaults.
const (
	EnvPort    = "FIRMATA_PORT"
	EnvBaud    = "FIRMATA_BAUD"
	EnvMQTTURL = "FIRMATA_MQTT_URL"
)

// Config provides common options to open a board.
type Config struct {
	// Port is a serial device or a websocket URL.
	Port          string
	BaudRate      int
	InitTimeout   time.Duration
	SkipDiscovery bool

	// MQTTBrokerURL specifies the MQTT broker used by the bridge.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// DeviceID names the board on the broker.
	DeviceID string
}

var (
	// ErrNoBroker indicates the bridge is requested without a broker URL.
	ErrNoBroker = errors.New("MQTT broker URL is required")
	// ErrNoDeviceID indicates the bridge is requested without a device ID.
	ErrNoDeviceID = errors.New("device ID is required")
)

var defaultConfig = Config{
	BaudRate:      transport.DefaultBaudRate,
	InitTimeout:   client.DefaultInitTimeout,
	MQTTBrokerURL: "mqtt://localhost:1883/firmata/",
}

func init() {
	applyEnv(&defaultConfig, os.Getenv)
	defaultConfig.DeviceID = MachineID()
}

func applyEnv(c *Config, getenv func(string) string) {
	if val := getenv(EnvPort); val != "" {
		c.Port = val
	}
	if val := getenv(EnvBaud); val != "" {
		if baud, err := strconv.Atoi(val); err == nil && baud > 0 {
			c.BaudRate = baud
		} else {
			glog.Warningf("ignore %s=%q", EnvBaud, val)
		}
	}
	if val := getenv(EnvMQTTURL); val != "" {
		c.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port or websocket URL")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Baud rate")
	flag.DurationVar(&defaultConfig.InitTimeout, "init-timeout", defaultConfig.InitTimeout, "Handshake timeout")
	flag.BoolVar(&defaultConfig.SkipDiscovery, "skip-discovery", defaultConfig.SkipDiscovery, "Skip capability and pin state queries")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Transport returns the link configuration.
func (c *Config) Transport() transport.Config {
	return transport.Config{Port: c.Port, BaudRate: c.BaudRate}
}

// ClientOptions fills the options not set by the caller.
func (c *Config) ClientOptions(opts client.Options) client.Options {
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = c.InitTimeout
	}
	opts.SkipDiscovery = opts.SkipDiscovery || c.SkipDiscovery
	return opts
}

// Open opens the board and waits for the handshake.
// The client runs until ctx is done.
func (c *Config) Open(ctx context.Context, opts client.Options) (*client.Client, error) {
	cli, err := client.Open(ctx, c.Transport(), c.ClientOptions(opts))
	if err != nil {
		return nil, err
	}
	if err := cli.WaitInitialized(ctx); err != nil {
		cli.Close()
		return nil, err
	}
	fw := cli.Firmware()
	glog.Infof("board %s: %s, %d pins", c.Port, fw, len(cli.Pins()))
	return cli, nil
}

// MustOpen opens the board and exits on error.
func (c *Config) MustOpen(ctx context.Context, opts client.Options) *client.Client {
	cli, err := c.Open(ctx, opts)
	if err != nil {
		glog.Exitf("open %s: %v", c.Port, err)
	}
	return cli
}

// MQTTOptions creates the MQTT client options of the bridge.
// The retained meta is cleared by the will when the bridge drops.
func (c *Config) MQTTOptions() (*paho.ClientOptions, string, error) {
	if c.MQTTBrokerURL == "" {
		return nil, "", ErrNoBroker
	}
	if c.DeviceID == "" {
		return nil, "", ErrNoDeviceID
	}
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(c.MQTTBrokerURL)
	if err != nil {
		return nil, "", err
	}
	opts.SetBinaryWill(topicPrefix+c.DeviceID+"/"+mqtt.TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("firmata:" + c.DeviceID)
	}
	return opts, topicPrefix, nil
}

// NewBridge creates the MQTT queue and the bridge on top of it.
// Meta is republished on every reconnect.
func (c *Config) NewBridge() (*mqtt.Queue, *mqtt.Bridge, error) {
	opts, topicPrefix, err := c.MQTTOptions()
	if err != nil {
		return nil, nil, err
	}
	q := mqtt.NewQueue(opts, topicPrefix)
	b := mqtt.NewBridge(q, c.DeviceID)
	q.OnConnect = func(*mqtt.Queue) { b.PublishMeta() }
	return q, b, nil
}
