package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tasosval/sharpduino/pkg/firmata"
	"github.com/tasosval/sharpduino/pkg/transport"
)

type chanConn struct {
	readCh  chan byte
	writeCh chan []byte
	closeCh chan struct{}
	once    sync.Once
}

func newChanConn() *chanConn {
	return &chanConn{
		readCh:  make(chan byte, 4096),
		writeCh: make(chan []byte, 64),
		closeCh: make(chan struct{}),
	}
}

func (c *chanConn) ReadByte() (byte, error) {
	select {
	case b := <-c.readCh:
		return b, nil
	case <-c.closeCh:
		return 0, transport.ErrClosed
	}
}

func (c *chanConn) Write(p []byte) (int, error) {
	select {
	case <-c.closeCh:
		return 0, transport.ErrClosed
	default:
	}
	c.writeCh <- append([]byte(nil), p...)
	return len(p), nil
}

func (c *chanConn) Close() error {
	c.once.Do(func() { close(c.closeCh) })
	return nil
}

type clientTestEnv struct {
	t      *testing.T
	conn   *chanConn
	client *Client
	msgCh  chan firmata.Message
	runErr chan error
	cancel context.CancelFunc
}

func newClientTestEnv(t *testing.T, opts Options) *clientTestEnv {
	env := &clientTestEnv{
		t:      t,
		conn:   newChanConn(),
		msgCh:  make(chan firmata.Message, 64),
		runErr: make(chan error, 1),
	}
	opts.Handler = HandleMessageFunc(func(ctx context.Context, msg firmata.Message) {
		env.msgCh <- msg
	})
	env.client = New(env.conn, opts)
	return env
}

func (e *clientTestEnv) run() *clientTestEnv {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.t.Cleanup(cancel)
	go func() { e.runErr <- e.client.Run(ctx) }()
	e.expectState(Connecting)
	e.expectWrite(handshakeStart())
	return e
}

func (e *clientTestEnv) inject(msgs ...firmata.Message) {
	for _, msg := range msgs {
		b, err := msg.Encode()
		require.NoError(e.t, err)
		for _, c := range b {
			e.conn.readCh <- c
		}
	}
}

func (e *clientTestEnv) injectRaw(b ...byte) {
	for _, c := range b {
		e.conn.readCh <- c
	}
}

func (e *clientTestEnv) expectWrite(expect []byte) {
	select {
	case b := <-e.conn.writeCh:
		require.Equal(e.t, expect, b)
	case <-time.After(time.Second):
		e.t.Fatalf("expect write % X", expect)
	}
}

func (e *clientTestEnv) skipWrite() {
	select {
	case <-e.conn.writeCh:
	case <-time.After(time.Second):
		e.t.Fatal("expect write")
	}
}

func (e *clientTestEnv) expectMessages(msgs ...firmata.Message) {
	e.expectWrite(encodeAll(e.t, msgs...))
}

func (e *clientTestEnv) expectNoWrite() {
	select {
	case b := <-e.conn.writeCh:
		e.t.Fatalf("unexpected write % X", b)
	default:
	}
}

func (e *clientTestEnv) expectState(state ConnState) {
	select {
	case s := <-e.client.StateChan():
		require.Equal(e.t, state, s)
	case <-time.After(time.Second):
		e.t.Fatalf("expect state %s", state)
	}
}

func (e *clientTestEnv) expectHandled(msg firmata.Message) {
	select {
	case m := <-e.msgCh:
		require.Equal(e.t, msg, m)
	case <-time.After(time.Second):
		e.t.Fatalf("expect message %T", msg)
	}
}

func encodeAll(t *testing.T, msgs ...firmata.Message) []byte {
	var out []byte
	for _, msg := range msgs {
		b, err := msg.Encode()
		require.NoError(t, err)
		out = append(out, b...)
	}
	return out
}

func handshakeStart() []byte {
	var out []byte
	for port := byte(0); port < firmata.MaxPorts; port++ {
		out = append(out, firmata.ReportDigitalCmd|port, 0)
	}
	for ch := byte(0); ch < firmata.MaxChannelPins; ch++ {
		out = append(out, firmata.ReportAnalogCmd|ch, 0)
	}
	return append(out, firmata.ProtocolVersionCmd)
}

// testBoard has 15 pins, pin 14 being analog channel 0.
func testBoard() (*firmata.CapabilityMessage, *firmata.AnalogMappingMessage) {
	caps := &firmata.CapabilityMessage{Pins: make([]firmata.PinCapabilities, 15)}
	mapping := &firmata.AnalogMappingMessage{Channels: make([]byte, 15)}
	for n := range caps.Pins {
		mapping.Channels[n] = firmata.NoAnalogChannel
		switch {
		case n < 2:
			caps.Pins[n] = firmata.PinCapabilities{}
		case n == 9:
			caps.Pins[n] = firmata.PinCapabilities{
				firmata.PinModeInput:  1,
				firmata.PinModeOutput: 1,
				firmata.PinModePWM:    8,
				firmata.PinModeServo:  14,
			}
		case n == 14:
			caps.Pins[n] = firmata.PinCapabilities{firmata.PinModeInput: 1, firmata.PinModeAnalog: 10}
			mapping.Channels[n] = 0
		default:
			caps.Pins[n] = firmata.PinCapabilities{firmata.PinModeInput: 1, firmata.PinModeOutput: 1}
		}
	}
	return caps, mapping
}

func (e *clientTestEnv) handshake() *clientTestEnv {
	e.inject(&firmata.ProtocolVersionMessage{Major: 2, Minor: 5})
	e.expectMessages(&firmata.FirmwareQueryMessage{})
	require.Equal(e.t, Connecting, e.client.State())

	e.inject(&firmata.FirmwareMessage{Major: 2, Minor: 5, Name: "StandardFirmata.ino"})
	e.expectMessages(&firmata.CapabilityQueryMessage{})

	caps, mapping := testBoard()
	e.inject(caps)
	e.expectMessages(&firmata.AnalogMappingQueryMessage{})

	e.inject(mapping)
	var queries []firmata.Message
	for n := byte(0); n < 15; n++ {
		queries = append(queries, &firmata.PinStateQueryMessage{Pin: n})
	}
	e.expectMessages(queries...)
	require.Equal(e.t, Connecting, e.client.State())

	for n := byte(0); n < 15; n++ {
		state := &firmata.PinStateMessage{Pin: n, Mode: firmata.PinModeOutput}
		if n == 14 {
			state.Mode = firmata.PinModeAnalog
		} else if n == 2 {
			state.Mode = firmata.PinModeInput
		}
		e.inject(state)
	}
	e.expectMessages(
		&firmata.ReportDigitalMessage{Port: 0, Enable: true},
		&firmata.ReportDigitalMessage{Port: 1, Enable: true},
		&firmata.ReportAnalogMessage{Pin: 0, Enable: true},
	)
	e.expectState(Initialized)
	require.NoError(e.t, e.client.WaitInitialized(context.Background()))
	return e
}

func (e *clientTestEnv) drainHandled() {
	for {
		select {
		case <-e.msgCh:
		default:
			return
		}
	}
}

func TestHandshake(t *testing.T) {
	env := newClientTestEnv(t, Options{}).run().handshake()
	c := env.client

	require.Equal(t, Version{Major: 2, Minor: 5}, c.ProtocolVersion())
	require.Equal(t, "StandardFirmata.ino:2.5", c.Firmware().String())
	pins := c.Pins()
	require.Len(t, pins, 15)
	require.Equal(t, firmata.PinModeInput, pins[2].Mode)
	require.Equal(t, firmata.PinModeOutput, pins[13].Mode)
	require.True(t, pins[9].Capabilities.Supports(firmata.PinModeServo))
	analog := c.AnalogPins()
	require.Len(t, analog, 1)
	require.Equal(t, byte(14), analog[0].Number)
	require.Equal(t, byte(0), analog[0].AnalogChannel)
	_, ok := c.Pin(15)
	require.False(t, ok)
}

// The board is opened as "COM3", initialized, and pin 13 becomes an output.
func TestSetPinModeAfterInit(t *testing.T) {
	env := newClientTestEnv(t, Options{})
	require.Equal(t, Disconnected, env.client.State())
	env.run()
	require.Equal(t, Connecting, env.client.State())
	env.handshake()

	require.NoError(t, env.client.SetPinMode(13, firmata.PinModeOutput))
	env.expectWrite([]byte{0xF4, 0x0D, 0x01})
	pin, ok := env.client.Pin(13)
	require.True(t, ok)
	require.Equal(t, firmata.PinModeOutput, pin.Mode)
}

func TestSkipDiscovery(t *testing.T) {
	env := newClientTestEnv(t, Options{SkipDiscovery: true}).run()
	env.injectRaw(0x01, 0x02, 0x03)
	env.inject(&firmata.FirmwareMessage{Major: 2, Minor: 5, Name: "StandardFirmata.ino"})
	env.expectState(Initialized)
	require.NoError(t, env.client.WaitInitialized(context.Background()))
	env.expectNoWrite()
	require.Equal(t, "StandardFirmata.ino", env.client.Firmware().Name)

	// Any pin is accepted without discovery.
	require.NoError(t, env.client.SetPinMode(13, firmata.PinModeOutput))
	env.expectWrite([]byte{0xF4, 0x0D, 0x01})
}

func TestOperationsBeforeInit(t *testing.T) {
	ops := []struct {
		name string
		fn   func(*Client) error
	}{
		{"SetPinMode", func(c *Client) error { return c.SetPinMode(13, firmata.PinModeOutput) }},
		{"SetDigitalOutput", func(c *Client) error { return c.SetDigitalOutput(13, true) }},
		{"DigitalWrite", func(c *Client) error { return c.DigitalWrite(13, true) }},
		{"SetSamplingInterval", func(c *Client) error { return c.SetSamplingInterval(100 * time.Millisecond) }},
		{"SendServoConfig", func(c *Client) error { return c.SendServoConfig(9, 544, 2400, 0) }},
		{"SendAnalogValue", func(c *Client) error { return c.SendAnalogValue(9, 92) }},
		{"ReportAnalog", func(c *Client) error { return c.ReportAnalog(0, true) }},
		{"ReportDigital", func(c *Client) error { return c.ReportDigital(0, true) }},
		{"QueryPinState", func(c *Client) error { return c.QueryPinState(13) }},
		{"SendMessage", func(c *Client) error { return c.SendMessage(&firmata.ResetMessage{}) }},
	}

	t.Run("disconnected", func(t *testing.T) {
		env := newClientTestEnv(t, Options{})
		for _, op := range ops {
			require.ErrorIsf(t, op.fn(env.client), ErrNotInitialized, op.name)
		}
		env.expectNoWrite()
	})

	t.Run("connecting", func(t *testing.T) {
		env := newClientTestEnv(t, Options{}).run()
		env.inject(&firmata.ProtocolVersionMessage{Major: 2, Minor: 5})
		env.expectMessages(&firmata.FirmwareQueryMessage{})
		for _, op := range ops {
			require.ErrorIsf(t, op.fn(env.client), ErrNotInitialized, op.name)
		}
		env.expectNoWrite()
	})

	t.Run("closed", func(t *testing.T) {
		env := newClientTestEnv(t, Options{SkipDiscovery: true}).run()
		env.inject(&firmata.FirmwareMessage{Major: 2, Minor: 5})
		env.expectState(Initialized)
		require.NoError(t, env.client.Close())
		for _, op := range ops {
			require.ErrorIsf(t, op.fn(env.client), ErrNotInitialized, op.name)
		}
	})
}

func TestSendAnalogValue(t *testing.T) {
	env := newClientTestEnv(t, Options{SkipDiscovery: true}).run()
	require.ErrorIs(t, env.client.SendAnalogValue(9, 92), ErrNotInitialized)
	env.inject(&firmata.FirmwareMessage{Major: 2, Minor: 5})
	env.expectState(Initialized)

	require.NoError(t, env.client.SendAnalogValue(9, 92))
	env.expectWrite([]byte{0xE9, 0x5C, 0x00})
	require.NoError(t, env.client.SendAnalogValue(20, 92))
	env.expectWrite([]byte{0xF0, 0x6F, 0x14, 0x5C, 0x00, 0xF7})
	require.NoError(t, env.client.SendAnalogValue(9, 0x4000))
	env.expectWrite([]byte{0xF0, 0x6F, 0x09, 0x00, 0x00, 0x01, 0xF7})
	require.ErrorIs(t, env.client.SendAnalogValue(9, firmata.MaxExtendedValue+1), firmata.ErrValueOutOfRange)
	env.expectNoWrite()

	pin, ok := env.client.Pin(9)
	require.True(t, ok)
	require.Equal(t, uint32(0x4000), pin.Value)
}

func TestDigitalOutput(t *testing.T) {
	env := newClientTestEnv(t, Options{SkipDiscovery: true}).run()
	env.inject(&firmata.FirmwareMessage{Major: 2, Minor: 5})
	env.expectState(Initialized)
	c := env.client

	require.NoError(t, c.SetDigitalOutput(13, true))
	env.expectWrite([]byte{0x91, 0x20, 0x00})
	require.NoError(t, c.SetDigitalOutput(12, true))
	env.expectWrite([]byte{0x91, 0x30, 0x00})
	require.NoError(t, c.SetDigitalOutput(13, false))
	env.expectWrite([]byte{0x91, 0x10, 0x00})
	// Pin 2 isn't known to be an output, its bit stays 0 in port writes.
	require.NoError(t, c.DigitalWrite(2, true))
	env.expectWrite([]byte{0xF5, 0x02, 0x01})
	require.NoError(t, c.SetDigitalOutput(7, true))
	env.expectWrite([]byte{0x90, 0x00, 0x01})
	pin, _ := c.Pin(7)
	require.Equal(t, firmata.PinModeOutput, pin.Mode)
}

func TestDigitalOutputSkipsOtherModes(t *testing.T) {
	env := newClientTestEnv(t, Options{}).run().handshake()
	env.drainHandled()
	c := env.client

	report := &firmata.DigitalMessage{Port: 0, Values: 0x04}
	env.inject(report)
	env.expectHandled(report)
	require.NoError(t, c.SetDigitalOutput(3, true))
	env.expectWrite([]byte{0x90, 0x08, 0x00})

	require.NoError(t, c.SendServoConfig(9, firmata.DefaultServoMinPulse, firmata.DefaultServoMaxPulse, 0))
	env.skipWrite()
	require.NoError(t, c.SendAnalogValue(9, 92))
	env.expectWrite([]byte{0xE9, 0x5C, 0x00})
	require.NoError(t, c.SetDigitalOutput(13, true))
	env.expectWrite([]byte{0x91, 0x20, 0x00})

	for _, n := range []byte{2, 9, 14} {
		err := c.SetDigitalOutput(n, true)
		require.ErrorIs(t, err, ErrModeNotSupported)
		pinErr, ok := err.(*PinError)
		require.True(t, ok)
		require.Equal(t, n, pinErr.Pin)
	}
	env.expectNoWrite()
}

func TestOtherOperations(t *testing.T) {
	env := newClientTestEnv(t, Options{SkipDiscovery: true}).run()
	env.inject(&firmata.FirmwareMessage{Major: 2, Minor: 5})
	env.expectState(Initialized)
	c := env.client

	require.NoError(t, c.SetSamplingInterval(100*time.Millisecond))
	env.expectWrite([]byte{0xF0, 0x7A, 0x64, 0x00, 0xF7})
	require.ErrorIs(t, c.SetSamplingInterval(time.Minute), firmata.ErrValueOutOfRange)

	require.NoError(t, c.SendServoConfig(9, firmata.DefaultServoMinPulse, firmata.DefaultServoMaxPulse, 0))
	env.expectWrite([]byte{0xF0, 0x70, 0x09, 0x20, 0x04, 0x60, 0x12, 0x00, 0x00, 0xF7})
	pin, _ := c.Pin(9)
	require.Equal(t, firmata.PinModeServo, pin.Mode)

	require.NoError(t, c.ReportAnalog(2, true))
	env.expectWrite([]byte{0xC2, 0x01})
	require.NoError(t, c.ReportDigital(1, false))
	env.expectWrite([]byte{0xD1, 0x00})
	require.NoError(t, c.QueryPinState(3))
	env.expectWrite([]byte{0xF0, 0x6D, 0x03, 0xF7})
	require.NoError(t, c.SendMessage(&firmata.StringMessage{Text: "A"}))
	env.expectWrite([]byte{0xF0, 0x71, 0x41, 0x00, 0xF7})

	require.ErrorIs(t, c.SetPinMode(200, firmata.PinModeOutput), ErrNoSuchPin)
}

func TestPinValidation(t *testing.T) {
	env := newClientTestEnv(t, Options{}).run().handshake()
	c := env.client

	err := c.SetPinMode(20, firmata.PinModeOutput)
	require.ErrorIs(t, err, ErrNoSuchPin)
	pinErr, ok := err.(*PinError)
	require.True(t, ok)
	require.Equal(t, byte(20), pinErr.Pin)

	require.ErrorIs(t, c.SetPinMode(0, firmata.PinModeOutput), ErrModeNotSupported)
	require.ErrorIs(t, c.SetPinMode(13, firmata.PinModePWM), ErrModeNotSupported)
	require.ErrorIs(t, c.DigitalWrite(15, true), ErrNoSuchPin)
	env.expectNoWrite()

	require.NoError(t, c.SetPinMode(9, firmata.PinModePWM))
	env.expectWrite([]byte{0xF4, 0x09, 0x03})
}

func TestReports(t *testing.T) {
	env := newClientTestEnv(t, Options{}).run().handshake()
	env.drainHandled()
	c := env.client

	require.NoError(t, c.SetDigitalOutput(3, true))
	env.expectWrite([]byte{0x90, 0x08, 0x00})

	// Only pin 2 is an input, the output on pin 3 stays.
	report := &firmata.DigitalMessage{Port: 0, Values: 0x04}
	env.inject(report)
	env.expectHandled(report)
	pin, _ := c.Pin(2)
	require.Equal(t, uint32(1), pin.Value)
	pin, _ = c.Pin(3)
	require.Equal(t, uint32(1), pin.Value)

	analog := &firmata.AnalogMessage{Pin: 0, Value: 512}
	env.inject(analog)
	env.expectHandled(analog)
	pin, _ = c.Pin(14)
	require.Equal(t, uint32(512), pin.Value)

	state := &firmata.PinStateMessage{Pin: 5, Mode: firmata.PinModeInput, State: 1}
	env.inject(state)
	env.expectHandled(state)
	pin, _ = c.Pin(5)
	require.Equal(t, firmata.PinModeInput, pin.Mode)
	require.Equal(t, uint32(1), pin.Value)
}

func TestWaitInitializedTimeout(t *testing.T) {
	env := newClientTestEnv(t, Options{InitTimeout: 20 * time.Millisecond}).run()
	require.Equal(t, ErrInitTimeout, env.client.WaitInitialized(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Equal(t, ErrInitTimeout, env.client.WaitInitialized(ctx))
}

func TestClose(t *testing.T) {
	env := newClientTestEnv(t, Options{}).run().handshake()
	c := env.client

	require.NoError(t, c.Close())
	env.expectMessages(
		&firmata.ReportDigitalMessage{Port: 0},
		&firmata.ReportDigitalMessage{Port: 1},
		&firmata.ReportAnalogMessage{Pin: 0},
	)
	env.expectState(Disconnected)
	require.Equal(t, Disconnected, c.State())
	require.NoError(t, c.Close())
	env.expectNoWrite()

	select {
	case err := <-env.runErr:
		require.Equal(t, transport.ErrClosed, err)
	case <-time.After(time.Second):
		t.Fatal("Run didn't return")
	}
	<-c.Done()
	require.Equal(t, transport.ErrClosed, c.Err())
}

func TestCloseWakesWaiters(t *testing.T) {
	env := newClientTestEnv(t, Options{InitTimeout: time.Minute})
	errCh := make(chan error, 1)
	go func() { errCh <- env.client.WaitInitialized(context.Background()) }()
	require.NoError(t, env.client.Close())
	select {
	case err := <-errCh:
		require.Equal(t, transport.ErrClosed, err)
	case <-time.After(time.Second):
		t.Fatal("WaitInitialized didn't return")
	}
}

func TestRunCanceled(t *testing.T) {
	var states []ConnState
	var lock sync.Mutex
	env := newClientTestEnv(t, Options{
		Notifier: StateChangedFunc(func(ctx context.Context, s ConnState) {
			lock.Lock()
			defer lock.Unlock()
			states = append(states, s)
		}),
	}).run()
	env.cancel()
	select {
	case err := <-env.runErr:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("Run didn't return")
	}
	env.expectState(Disconnected)
	require.Equal(t, context.Canceled, env.client.WaitInitialized(context.Background()))
	select {
	case <-env.conn.closeCh:
	case <-time.After(time.Second):
		t.Fatal("link not released")
	}

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, []ConnState{Connecting, Disconnected}, states)
}

func TestConnStateString(t *testing.T) {
	require.Equal(t, "Initialized", Initialized.String())
	require.Equal(t, "ConnState(7)", ConnState(7).String())
}

func TestRunOnlyOnce(t *testing.T) {
	env := newClientTestEnv(t, Options{}).run()
	env.cancel()
	select {
	case err := <-env.runErr:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("Run didn't return")
	}
	env.expectState(Disconnected)

	require.Equal(t, transport.ErrClosed, env.client.Run(context.Background()))
	env.expectState(Connecting)
	env.expectState(Disconnected)
	env.expectNoWrite()
}
