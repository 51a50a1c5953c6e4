package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/tasosval/sharpduino/pkg/firmata"
	"github.com/tasosval/sharpduino/pkg/transport"
)

// DefaultInitTimeout bounds WaitInitialized when the context has no deadline.
const DefaultInitTimeout = 5 * time.Second

// Conn is the byte link used by the client.
// *transport.Conn implements it.
type Conn interface {
	ReadByte() (byte, error)
	Write([]byte) (int, error)
	Close() error
}

// Options configures a Client.
type Options struct {
	Handler  MessageHandler
	Notifier StateNotifier
	// InitTimeout is used by WaitInitialized when the context has no deadline.
	InitTimeout time.Duration
	// SkipDiscovery completes the handshake on the firmware report,
	// without querying capabilities, analog mapping and pin states.
	SkipDiscovery bool
}

// Client talks to a board running Firmata.
type Client struct {
	conn    Conn
	opts    Options
	state   atomic.Int32
	stateCh chan ConnState
	closed  atomic.Bool
	closeCh chan struct{}

	stateLock sync.Mutex
	sendLock  sync.Mutex

	lock sync.Mutex
	sess *session

	board  board
	parser firmata.Parser
	stage  stage
	// reports enabled by the handshake, disabled on Close.
	reportPorts    byte
	reportChannels []byte
}

// session lives for one Run.
type session struct {
	initCh chan struct{}
	doneCh chan struct{}
	err    error
}

func newSession() *session {
	return &session{initCh: make(chan struct{}), doneCh: make(chan struct{})}
}

func (s *session) finished() bool {
	select {
	case <-s.doneCh:
		return true
	default:
		return false
	}
}

// New creates a client over an established link.
func New(conn Conn, opts Options) *Client {
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = DefaultInitTimeout
	}
	return &Client{
		conn:    conn,
		opts:    opts,
		stateCh: make(chan ConnState, 8),
		closeCh: make(chan struct{}),
		sess:    newSession(),
	}
}

// Open opens the link described by cfg and runs the client in the
// background until ctx is done or Close is called.
func Open(ctx context.Context, cfg transport.Config, opts Options) (*Client, error) {
	conn, err := transport.Open(cfg)
	if err != nil {
		return nil, err
	}
	c := New(conn, opts)
	c.setState(ctx, Connecting)
	go func() {
		if err := c.Run(ctx); err != nil && !errors.Is(err, transport.ErrClosed) {
			glog.Errorf("client %s: %v", conn.Name(), err)
		}
		c.Close()
	}()
	return c, nil
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// StateChan reports state changes. States are dropped if the chan isn't drained.
func (c *Client) StateChan() <-chan ConnState {
	return c.stateCh
}

// Done is closed when the current Run returns.
func (c *Client) Done() <-chan struct{} {
	return c.session().doneCh
}

// Err returns the error which ended the last Run.
func (c *Client) Err() error {
	s := c.session()
	if !s.finished() {
		return nil
	}
	return s.err
}

// Pins returns the pins of the board.
func (c *Client) Pins() []Pin {
	return c.board.snapshot()
}

// Pin returns a single pin.
func (c *Client) Pin(n byte) (Pin, bool) {
	return c.board.get(n)
}

// AnalogPins returns the pins with analog input, ordered by channel.
func (c *Client) AnalogPins() []Pin {
	return c.board.analogPins()
}

// Firmware returns the firmware reported by the board.
func (c *Client) Firmware() FirmwareInfo {
	_, fw := c.board.info()
	return fw
}

// ProtocolVersion returns the protocol version reported by the board.
func (c *Client) ProtocolVersion() Version {
	v, _ := c.board.info()
	return v
}

// WaitInitialized blocks until the handshake completes.
// InitTimeout applies if ctx has no deadline.
func (c *Client) WaitInitialized(ctx context.Context) error {
	s := c.session()
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.InitTimeout)
		defer cancel()
	}
	select {
	case <-s.initCh:
		return nil
	default:
	}
	select {
	case <-s.initCh:
		return nil
	case <-s.doneCh:
		if s.err != nil {
			return s.err
		}
		return ErrNotInitialized
	case <-c.closeCh:
		return transport.ErrClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrInitTimeout
		}
		return ctx.Err()
	}
}

// Run reads from the link and drives the handshake until ctx is done
// or the link fails. The link is closed when Run returns, which also
// stops the reader, so a Client runs only once.
func (c *Client) Run(ctx context.Context) (err error) {
	s := c.startSession()
	defer func() {
		c.conn.Close()
		c.setState(ctx, Disconnected)
		s.err = err
		close(s.doneCh)
	}()

	c.setState(ctx, Connecting)
	if err = c.startHandshake(); err != nil {
		return
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			if err = c.applyParseResult(ctx, s, c.parser.Parse(b)); err != nil {
				return
			}
		case err = <-errCh:
			return
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	for {
		b, err := c.conn.ReadByte()
		if errors.Is(err, transport.ErrTimeout) {
			continue
		}
		if err != nil {
			errCh <- err
			return
		}
		select {
		case byteCh <- b:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) applyParseResult(ctx context.Context, s *session, pr firmata.ParseResult) error {
	if pr.Err != nil {
		glog.Warningf("client: %v", pr.Err)
	} else if pr.Dropped > 0 {
		glog.V(2).Infof("client: dropped %d bytes", pr.Dropped)
	}
	if pr.Message == nil {
		return nil
	}
	glog.V(2).Infof("client: recv %T%+v", pr.Message, pr.Message)
	if err := c.handle(ctx, s, pr.Message); err != nil {
		return err
	}
	if h := c.opts.Handler; h != nil {
		h.HandleMessage(ctx, pr.Message)
	}
	return nil
}

// Close disables reports if initialized and releases the link.
// It's safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.State() == Initialized {
		if err := c.send(c.reportMessages(false)...); err != nil {
			glog.Warningf("client: disable reports: %v", err)
		}
	}
	c.setState(context.Background(), Disconnected)
	close(c.closeCh)
	return c.conn.Close()
}

func (c *Client) session() *session {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.sess
}

func (c *Client) startSession() *session {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.sess.finished() {
		c.sess = newSession()
	}
	return c.sess
}

func (c *Client) setState(ctx context.Context, state ConnState) {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()
	if ConnState(c.state.Swap(int32(state))) == state {
		return
	}
	glog.Infof("client: %s", state)
	select {
	case c.stateCh <- state:
	default:
	}
	if n := c.opts.Notifier; n != nil {
		n.StateChanged(ctx, state)
	}
}

// send writes messages in one write, without checking the state.
func (c *Client) send(msgs ...firmata.Message) error {
	var buf []byte
	for _, msg := range msgs {
		b, err := msg.Encode()
		if err != nil {
			return err
		}
		buf = append(buf, b...)
	}
	if len(buf) == 0 {
		return nil
	}
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	glog.V(2).Infof("client: send % X", buf)
	_, err := c.conn.Write(buf)
	return err
}
