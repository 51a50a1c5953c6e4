package transport

import (
	"net/url"
	"time"

	"golang.org/x/net/websocket"
)

func dialWebsocket(cfg Config) (*Conn, error) {
	u, err := url.Parse(cfg.Port)
	if err != nil {
		return nil, err
	}
	origin := &url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	wsCfg, err := websocket.NewConfig(cfg.Port, origin.String())
	if err != nil {
		return nil, err
	}
	ws, err := websocket.DialConfig(wsCfg)
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	if cfg.ReadTimeout > 0 {
		return NewConn(&deadlineConn{Conn: ws, timeout: cfg.ReadTimeout}, cfg.Port), nil
	}
	return NewConn(ws, cfg.Port), nil
}

// deadlineConn applies the read timeout before every read.
type deadlineConn struct {
	*websocket.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
