package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tasosval/sharpduino/pkg/client"
	"github.com/tasosval/sharpduino/pkg/transport"
)

func TestApplyEnv(t *testing.T) {
	vars := map[string]string{
		EnvPort:    "/dev/ttyACM0",
		EnvBaud:    "115200",
		EnvMQTTURL: "mqtt://broker:1883/lab/",
	}
	c := Config{BaudRate: transport.DefaultBaudRate}
	applyEnv(&c, func(name string) string { return vars[name] })
	require.Equal(t, "/dev/ttyACM0", c.Port)
	require.Equal(t, 115200, c.BaudRate)
	require.Equal(t, "mqtt://broker:1883/lab/", c.MQTTBrokerURL)

	vars[EnvBaud] = "fast"
	c = Config{BaudRate: transport.DefaultBaudRate}
	applyEnv(&c, func(name string) string { return vars[name] })
	require.Equal(t, transport.DefaultBaudRate, c.BaudRate)
}

func TestNewConfig(t *testing.T) {
	c := NewConfig()
	require.NotSame(t, Default(), c)
	require.NotEmpty(t, c.DeviceID)
	c.Port = "COM3"
	require.Equal(t, transport.Config{Port: "COM3", BaudRate: c.BaudRate}, c.Transport())
}

func TestClientOptions(t *testing.T) {
	c := &Config{InitTimeout: 3 * time.Second, SkipDiscovery: true}
	opts := c.ClientOptions(client.Options{})
	require.Equal(t, 3*time.Second, opts.InitTimeout)
	require.True(t, opts.SkipDiscovery)

	c.SkipDiscovery = false
	opts = c.ClientOptions(client.Options{InitTimeout: time.Second})
	require.Equal(t, time.Second, opts.InitTimeout)
	require.False(t, opts.SkipDiscovery)
}

func TestOpenNoPort(t *testing.T) {
	c := &Config{}
	_, err := c.Open(context.Background(), client.Options{})
	require.ErrorIs(t, err, transport.ErrNoPort)
}

func TestMQTTOptions(t *testing.T) {
	c := &Config{MQTTBrokerURL: "mqtt://broker:1883/lab", DeviceID: "uno"}
	opts, prefix, err := c.MQTTOptions()
	require.NoError(t, err)
	require.Equal(t, "lab/", prefix)
	require.Equal(t, "lab/uno/meta", opts.WillTopic)
	require.True(t, opts.WillEnabled)
	require.True(t, opts.WillRetained)
	require.Equal(t, "firmata:uno", opts.ClientID)

	c.MQTTBrokerURL = "mqtt://broker:1883/lab?client-id=bench"
	opts, _, err = c.MQTTOptions()
	require.NoError(t, err)
	require.Equal(t, "bench", opts.ClientID)

	_, _, err = (&Config{DeviceID: "uno"}).MQTTOptions()
	require.ErrorIs(t, err, ErrNoBroker)
	_, _, err = (&Config{MQTTBrokerURL: "mqtt://broker"}).MQTTOptions()
	require.ErrorIs(t, err, ErrNoDeviceID)
}

func TestNewBridge(t *testing.T) {
	c := &Config{MQTTBrokerURL: "mqtt://broker:1883/lab/", DeviceID: "uno"}
	q, b, err := c.NewBridge()
	require.NoError(t, err)
	require.Equal(t, "lab/", q.TopicPrefix)
	require.NotNil(t, q.OnConnect)
	require.Equal(t, "uno", b.DeviceID)
	require.Same(t, q, b.Broker)
}
