package bc

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

type EventFunc func(msg any)

// Listener base struct with support feedback
type Listener struct {
	events []EventFunc
}

// Listen is not synchronized with Fire. Call it before any I/O.
func (l *Listener) Listen(f EventFunc) {
	l.events = append(l.events, f)
}

func (l *Listener) Fire(msg any) {
	for _, f := range l.events {
		f(msg)
	}
}

// Sent is fired after a packet was written to the transport
type Sent struct {
	*Packet
}

const readChunk = 4096

// Conn frames a byte stream with Codec. One goroutine may read while others
// write: the session context is locked inside and writes are serialized.
type Conn struct {
	Listener

	rw    io.ReadWriteCloser
	codec *Codec

	buf []byte // received bytes not parsed yet

	mu   sync.Mutex
	wbuf []byte

	recv atomic.Int64
	send atomic.Int64
}

func NewConn(rw io.ReadWriteCloser, credentials Credentials) *Conn {
	return &Conn{rw: rw, codec: NewCodec(credentials)}
}

func (c *Conn) Encryption() Encryption {
	return c.codec.Encryption()
}

// ReadPacket blocks until a whole packet arrives. It returns io.EOF when the
// stream ends, even if some bytes of an unfinished packet are left.
func (c *Conn) ReadPacket() (*Packet, error) {
	for {
		if len(c.buf) > 0 {
			p, n, err := c.codec.Decode(c.buf)
			if err != nil {
				return nil, err
			}
			if p != nil {
				c.consume(n)
				c.Fire(p)
				return p, nil
			}
		}

		if err := c.fill(); err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}

			p, n, err := c.codec.DecodeEOF(c.buf)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, io.EOF
			}
			c.consume(n)
			c.Fire(p)
			return p, nil
		}
	}
}

func (c *Conn) fill() error {
	if cap(c.buf)-len(c.buf) < readChunk {
		buf := make([]byte, len(c.buf), 2*cap(c.buf)+readChunk)
		copy(buf, c.buf)
		c.buf = buf
	}

	n, err := c.rw.Read(c.buf[len(c.buf):cap(c.buf)])
	c.buf = c.buf[:len(c.buf)+n]
	c.recv.Add(int64(n))

	if n > 0 && errors.Is(err, io.EOF) {
		return nil // parse what we have, EOF will repeat
	}
	return err
}

func (c *Conn) consume(n int) {
	c.buf = c.buf[:copy(c.buf, c.buf[n:])]
}

func (c *Conn) WritePacket(p *Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.codec.Encode(c.wbuf[:0], p)
	if err != nil {
		return err
	}
	c.wbuf = b

	n, err := c.rw.Write(b)
	c.send.Add(int64(n))
	if err != nil {
		return err
	}

	c.Fire(Sent{p})
	return nil
}

func (c *Conn) Recv() int {
	return int(c.recv.Load())
}

func (c *Conn) Send() int {
	return int(c.send.Load())
}

func (c *Conn) Close() error {
	return c.rw.Close()
}
