// Package jsonline provides a TCP server for newline-delimited JSON
// streams. It reassembles fragmented TCP segments into complete frames,
// bounds the size of a single in-flight message, decodes each frame
// through a pluggable codec, and hands the result to an application
// supplied sink.
package jsonline

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Errors returned by connection operations.
var (
	// ErrInvalidCodec is returned when no codec is provided.
	ErrInvalidCodec = errors.New("invalid codec callback")
	// ErrInvalidOnMessage is returned when no message handler is provided.
	ErrInvalidOnMessage = errors.New("invalid on message callback")
)

// ErrConnectionClosed is returned when operating on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Conn drives one accepted socket from accept to close. It owns the
// connection's FrameBuffer exclusively: the read loop feeds raw chunks
// into the buffer, decodes every extracted frame and dispatches it to
// the onMessage sink. A write loop drains the send channel so the
// ingestion path never blocks on a slow peer.
type Conn struct {
	rawConn *net.TCPConn
	buffer  *FrameBuffer
	id      uuid.UUID
	logger  Logger

	opts options

	sendMsg chan []byte
	closed  atomic.Bool
	cancel  context.CancelFunc
}

// Default configuration values.
const (
	// defaultBufferSize is the default size of the send channel buffer.
	defaultBufferSize = 64
	// defaultReadChunkSize is the default size of a single socket read.
	defaultReadChunkSize = 64 * 1024
)

// NewConn creates a connection wrapper around the given TCP connection.
// It applies the provided options and validates them before returning.
// Returns an error if required options (codec, onMessage) are missing.
func NewConn(conn *net.TCPConn, opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	err := checkOptions(&opts)
	if err != nil {
		return nil, err
	}

	return newConnWithOptions(conn, opts), nil
}

// checkOptions validates and sets default values for connection options.
func checkOptions(opts *options) error {
	if opts.bufferSize <= 0 {
		opts.bufferSize = defaultBufferSize
	}

	if opts.maxFrameSize <= 0 {
		opts.maxFrameSize = defaultMaxFrameSize
	}

	if opts.readChunkSize <= 0 {
		opts.readChunkSize = defaultReadChunkSize
	}

	if opts.onMessage == nil {
		return ErrInvalidOnMessage
	}

	if opts.codec == nil {
		return ErrInvalidCodec
	}

	if opts.onError == nil {
		// A malformed payload does not corrupt the stream, so the
		// default is to skip the frame and keep reading.
		opts.onError = func(err error) ErrorAction { return Continue }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}

// newConnWithOptions creates a new Conn with the given options.
func newConnWithOptions(c *net.TCPConn, opts options) *Conn {
	return &Conn{
		rawConn: c,
		buffer:  NewFrameBuffer(opts.maxFrameSize),
		id:      uuid.New(),
		logger:  opts.logger,
		opts:    opts,
		sendMsg: make(chan []byte, opts.bufferSize),
	}
}

// ID returns the connection's correlation id, assigned at creation.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// Run starts the connection's read and write loops.
// It creates two goroutines for concurrent reading and writing,
// and blocks until an error occurs or the context is canceled.
// The connection is automatically closed when Run returns.
func (c *Conn) Run(ctx context.Context) error {
	c.logger.Info("connection established", "conn_id", c.id, "addr", c.Addr())
	c.logger.Debug("connection options", "conn_id", c.id,
		"buffer_size", c.opts.bufferSize,
		"max_frame_size", c.opts.maxFrameSize,
		"read_chunk_size", c.opts.readChunkSize,
		"idle_timeout", c.opts.idleTimeout)

	ctx, c.cancel = context.WithCancel(ctx)
	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	// Cancellation must unblock an in-progress Read promptly.
	group.Go(func() error {
		<-child.Done()
		_ = c.rawConn.SetReadDeadline(time.Now())
		return child.Err()
	})

	err := group.Wait()
	c.closeConn()

	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		c.logger.Info("connection closed", "conn_id", c.id, "addr", c.Addr())
	default:
		c.logger.Info("connection closed with error", "conn_id", c.id, "addr", c.Addr(), "error", err)
	}

	return err
}

// Close gracefully closes the connection.
// It cancels the context and closes the underlying TCP connection.
// Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	if c.cancel != nil {
		c.cancel()
	}
	return c.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// ErrBufferFull is returned when the send buffer is full and cannot accept more messages.
// This error indicates backpressure - the receiver is not consuming messages fast enough.
// Recommended handling strategies:
//   - Drop the message (for non-critical data like events)
//   - Use WriteBlocking or WriteTimeout to wait for buffer space
//   - Implement application-level flow control
var ErrBufferFull = errors.New("send buffer full")

// Write sends a message through the connection without blocking (fire-and-forget).
// The message is encoded using the configured codec and queued for sending.
//
// Returns:
//   - nil: message was successfully queued (not yet sent)
//   - ErrBufferFull: send buffer is full, message was NOT queued
//   - ErrConnectionClosed: connection is closed
//   - encoding error: if codec.Encode fails
//
// For guaranteed delivery, use WriteBlocking or WriteTimeout instead.
func (c *Conn) Write(message Message) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	bytes, err := c.opts.codec.Encode(message)
	if err != nil {
		return err
	}

	select {
	case c.sendMsg <- bytes:
		return nil
	default:
		return ErrBufferFull
	}
}

// WriteBlocking sends a message through the connection, blocking until the message
// is queued or the context is canceled. This is the safest write method for
// guaranteed delivery.
//
// Returns:
//   - nil: message was successfully queued
//   - context.Canceled or context.DeadlineExceeded: context was canceled
//   - ErrConnectionClosed: connection is closed
//   - encoding error: if codec.Encode fails
func (c *Conn) WriteBlocking(ctx context.Context, message Message) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	bytes, err := c.opts.codec.Encode(message)
	if err != nil {
		return err
	}

	select {
	case c.sendMsg <- bytes:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteTimeout sends a message through the connection with a timeout.
// This provides a middle ground between Write (non-blocking) and WriteBlocking.
//
// Returns:
//   - nil: message was successfully queued
//   - ErrBufferFull: timeout expired before message could be queued
//   - ErrConnectionClosed: connection is closed
//   - encoding error: if codec.Encode fails
func (c *Conn) WriteTimeout(message Message, timeout time.Duration) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	bytes, err := c.opts.codec.Encode(message)
	if err != nil {
		return err
	}

	select {
	case c.sendMsg <- bytes:
		return nil
	case <-time.After(timeout):
		return ErrBufferFull
	}
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.rawConn.RemoteAddr()
}

// readLoop reads bounded chunks from the socket, feeds them into the
// frame buffer and dispatches every completed frame. It returns when the
// context is canceled, the peer closes the stream, a transport error
// occurs, or a single message outgrows the configured maximum.
//
// Transport errors and ErrFrameTooLarge are always terminal. Only decode
// errors consult the onError policy.
func (c *Conn) readLoop(ctx context.Context) error {
	chunk := make([]byte, c.opts.readChunkSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if c.opts.idleTimeout > 0 {
				_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.idleTimeout))
			}

			n, err := c.rawConn.Read(chunk)
			if n > 0 {
				frames, frameErr := c.buffer.Append(chunk[:n])
				for _, frame := range frames {
					if handleErr := c.handleFrame(frame); handleErr != nil {
						return handleErr
					}
				}
				if frameErr != nil {
					c.logger.Warn("oversize frame, dropping connection",
						"conn_id", c.id, "addr", c.Addr(), "max_frame_size", c.buffer.Max())
					return frameErr
				}
			}
			if err != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if errors.Is(err, io.EOF) {
					c.logger.Debug("peer closed stream", "conn_id", c.id, "addr", c.Addr())
					return io.EOF
				}
				c.logger.Debug("read error", "conn_id", c.id, "addr", c.Addr(), "error", err)
				return err
			}
		}
	}
}

// handleFrame decodes one frame and dispatches the result. A decode
// failure is routed through the onError policy; a sink error is terminal.
func (c *Conn) handleFrame(frame []byte) error {
	message, err := c.opts.codec.Decode(frame)
	if err != nil {
		c.logger.Debug("decode error", "conn_id", c.id, "addr", c.Addr(), "error", err)
		if c.opts.onError(err) == Disconnect {
			return err
		}
		return nil
	}

	return c.opts.onMessage(message)
}

// writeLoop continuously sends messages from the send channel to the connection.
// Returns when the context is canceled or an unrecoverable error occurs.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-c.sendMsg:
			if err := c.write(data); err != nil {
				return err
			}
		}
	}
}

// write sends data to the connection, applying the idle timeout as a
// write deadline when one is configured.
func (c *Conn) write(data []byte) error {
	if c.opts.idleTimeout > 0 {
		_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.idleTimeout))
	}

	_, err := c.rawConn.Write(data)
	if err != nil {
		c.logger.Debug("write error", "conn_id", c.id, "addr", c.Addr(), "error", err)
		return err
	}

	return nil
}

// closeConn marks the connection as closed and closes the underlying TCP connection.
func (c *Conn) closeConn() {
	c.closed.Store(true)
	c.rawConn.Close()
}
