package jsonline

import (
	"time"
)

// ErrorAction defines the action to take when a frame fails to decode.
type ErrorAction int

const (
	// Disconnect closes the connection when a decode error occurs.
	Disconnect ErrorAction = iota
	// Continue skips the malformed frame and keeps reading.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	codec  Codec
	logger Logger

	onMessage func(message Message) error
	// onError is called when a frame fails to decode.
	// Returns Disconnect to close the connection, Continue to skip the frame.
	onError func(error) ErrorAction

	bufferSize    int           // size of buffered send channel
	maxFrameSize  int           // maximum size of a single in-flight frame
	readChunkSize int           // size of a single socket read
	idleTimeout   time.Duration // read/write deadline; zero disables deadlines
}

// Option is a function that configures connection options.
type Option func(*options)

// CustomCodecOption returns an Option that sets the message codec.
// The codec is required and must be provided before creating a connection.
func CustomCodecOption(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// BufferSizeOption returns an Option that sets the size of the send channel buffer.
// A larger buffer allows more messages to be queued before blocking.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// IdleTimeoutOption returns an Option that sets the read/write deadline
// applied to each socket operation. Zero (the default) disables deadlines;
// a blocked read then persists until the peer sends, disconnects, or the
// connection is closed.
func IdleTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = timeout
	}
}

// MaxFrameSizeOption returns an Option that bounds a single in-flight
// frame. A message that grows past this size before its delimiter arrives
// terminates the connection with ErrFrameTooLarge.
func MaxFrameSizeOption(size int) Option {
	return func(o *options) {
		o.maxFrameSize = size
	}
}

// ReadChunkSizeOption returns an Option that sets the size of the buffer
// used for a single socket read.
func ReadChunkSizeOption(size int) Option {
	return func(o *options) {
		o.readChunkSize = size
	}
}

// OnErrorOption returns an Option that sets the decode error callback.
// The callback is invoked when a frame fails to decode.
// Return Disconnect to close the connection, or Continue to skip the frame.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// OnMessageOption returns an Option that sets the message sink callback.
// This callback is required and is invoked for each decoded message.
func OnMessageOption(cb func(Message) error) Option {
	return func(o *options) {
		o.onMessage = cb
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
