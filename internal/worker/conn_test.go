package worker

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"time"
)

var errWriteFailed = errors.New("write failed")

// bufferConn reads the request from a string and records the response
type bufferConn struct {
	in       *strings.Reader
	out      bytes.Buffer
	writeErr error
	closed   bool
	closeErr error

	readDeadline  time.Time
	writeDeadline time.Time
}

func newBufferConn(req string) *bufferConn {
	return &bufferConn{in: strings.NewReader(req)}
}

func (c *bufferConn) Read(b []byte) (int, error) {
	return c.in.Read(b)
}

func (c *bufferConn) Write(b []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}

	return c.out.Write(b)
}

func (c *bufferConn) Close() error {
	c.closed = true

	return c.closeErr
}

func (c *bufferConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
}

func (c *bufferConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 40000}
}

func (c *bufferConn) SetDeadline(t time.Time) error {
	c.readDeadline = t
	c.writeDeadline = t

	return nil
}

func (c *bufferConn) SetReadDeadline(t time.Time) error {
	c.readDeadline = t

	return nil
}

func (c *bufferConn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline = t

	return nil
}
