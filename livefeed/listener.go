package livefeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/Factom-Asset-Tokens/factom-api/log"
)

// DefaultAddr is the address factomd's LiveFeed connects to by default.
const DefaultAddr = "127.0.0.1:8040"

// Handler receives every payload decoded from a LiveFeed connection. The next
// message is not read until HandleMessage returns.
type Handler interface {
	HandleMessage(msg []byte)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc func(msg []byte)

// HandleMessage calls f(msg).
func (f HandlerFunc) HandleMessage(msg []byte) { f(msg) }

// Serve decodes messages from conn and passes each to h until the peer closes
// conn, which is reported as a nil error.
func Serve(conn io.ReadWriter, h Handler) error {
	return serve(NewDecoder(conn), h)
}

func serve(d *Decoder, h Handler) error {
	for {
		msg, err := d.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		h.HandleMessage(msg)
	}
}

// Listener accepts a single LiveFeed connection and serves it.
type Listener struct {
	// Addr is the TCP address to listen on. DefaultAddr is used if empty.
	Addr    string
	Handler Handler

	// MaxMessageSize, if positive, limits the accepted payload length.
	MaxMessageSize int32

	Log log.Log
}

// ListenAndServe listens on l.Addr and then calls Serve.
func (l *Listener) ListenAndServe(ctx context.Context) error {
	addr := l.Addr
	if len(addr) == 0 {
		addr = DefaultAddr
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("livefeed: %w", err)
	}
	return l.Serve(ctx, ln)
}

// Serve accepts exactly one connection from ln, closes ln, and decodes
// messages from the connection until the peer closes it.
//
// Cancelling ctx closes ln and the connection, in which case ctx.Err() is
// returned.
func (l *Listener) Serve(ctx context.Context, ln net.Listener) error {
	if l.Handler == nil {
		ln.Close()
		return errors.New("livefeed: nil Handler")
	}
	lg := l.Log
	if lg.Entry == nil {
		lg = log.New("livefeed")
	}

	var mu sync.Mutex
	var conn net.Conn
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			ln.Close()
			mu.Lock()
			if conn != nil {
				conn.Close()
			}
			mu.Unlock()
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		wg.Wait()
	}()

	lg.Debugf("Listening for LiveFeed connection on %v...", ln.Addr())
	c, err := ln.Accept()
	ln.Close()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("livefeed: %w", err)
	}
	defer c.Close()

	mu.Lock()
	conn = c
	mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	lg.Infof("LiveFeed connected: %v", c.RemoteAddr())

	d := NewDecoder(c)
	d.MaxMessageSize = l.MaxMessageSize
	if err := serve(d, l.Handler); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lg.Errorf("LiveFeed %v: %v", c.RemoteAddr(), err)
		return err
	}
	lg.Infof("LiveFeed disconnected: %v", c.RemoteAddr())
	return nil
}
