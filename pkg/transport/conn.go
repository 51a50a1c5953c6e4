package transport

import (
	"errors"
	"io"
	"net"
	"os"

	"go.uber.org/atomic"
)

const readBufferSize = 256

// Conn is a byte link to a board.
// ReadByte is expected to be called from a single goroutine,
// while Write and Close are safe from any goroutine.
type Conn struct {
	rw     io.ReadWriteCloser
	name   string
	closed atomic.Bool

	buf      [readBufferSize]byte
	pos, end int
}

// NewConn wraps an established link.
func NewConn(rw io.ReadWriteCloser, name string) *Conn {
	return &Conn{rw: rw, name: name}
}

// Name returns the port name or URL of the link.
func (c *Conn) Name() string {
	return c.name
}

// ReadByte blocks until a byte is received.
func (c *Conn) ReadByte() (byte, error) {
	if c.pos < c.end {
		b := c.buf[c.pos]
		c.pos++
		return b, nil
	}
	if c.closed.Load() {
		return 0, ErrClosed
	}
	n, err := c.rw.Read(c.buf[:])
	if n > 0 {
		c.pos, c.end = 1, n
		return c.buf[0], nil
	}
	if err == nil {
		// go.bug.st/serial reports a read timeout as (0, nil).
		return 0, ErrTimeout
	}
	return 0, c.mapError(err)
}

// Write writes all of p.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	written := 0
	for written < len(p) {
		n, err := c.rw.Write(p[written:])
		written += n
		if err != nil {
			return written, c.mapError(err)
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Close releases the link. It's safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.rw.Close()
}

// Closed tells if Close has been called.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) mapError(err error) error {
	if c.closed.Load() {
		return ErrClosed
	}
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.ErrClosedPipe):
		return ErrDisconnected
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrTimeout
	}
	return err
}
