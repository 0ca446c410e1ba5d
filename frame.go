package jsonline

import (
	"bytes"
	"errors"
)

// Delimiter is the byte that terminates every frame on the wire.
const Delimiter = '\n'

// ErrFrameTooLarge is returned by FrameBuffer.Append when an unterminated
// message grows past the configured maximum. The connection owning the
// buffer must be closed; the partial data is discarded.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// defaultMaxFrameSize bounds a single in-flight message (10 MiB).
const defaultMaxFrameSize = 10 * 1024 * 1024

// FrameBuffer reassembles newline-delimited frames from an arbitrarily
// fragmented byte stream. Bytes are appended as they arrive from the
// socket; complete frames are handed back as soon as their delimiter is
// seen. The buffer holds at most one partial message at a time, bounded
// by the configured maximum.
//
// A FrameBuffer is owned by a single connection and is not safe for
// concurrent use.
type FrameBuffer struct {
	buf []byte
	max int
}

// NewFrameBuffer returns a buffer that rejects any single frame larger
// than max bytes. A non-positive max selects the 10 MiB default.
func NewFrameBuffer(max int) *FrameBuffer {
	if max <= 0 {
		max = defaultMaxFrameSize
	}
	return &FrameBuffer{max: max}
}

// Append adds p to the buffer and extracts every complete frame it now
// contains, in stream order. Each returned frame holds the bytes between
// delimiters, delimiter excluded; a delimiter at the head of the stream
// yields an empty frame. Returned slices are freshly allocated and remain
// valid after further Appends.
//
// If the residual bytes after extraction exceed the maximum, Append
// returns ErrFrameTooLarge together with any frames completed by this
// call, and the buffer is reset. No frame is ever produced from the
// oversize data itself.
func (b *FrameBuffer) Append(p []byte) ([][]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}
	b.buf = append(b.buf, p...)

	var frames [][]byte
	start := 0
	for {
		i := bytes.IndexByte(b.buf[start:], Delimiter)
		if i < 0 {
			break
		}
		frame := make([]byte, i)
		copy(frame, b.buf[start:start+i])
		frames = append(frames, frame)
		start += i + 1
	}
	if start > 0 {
		n := copy(b.buf, b.buf[start:])
		b.buf = b.buf[:n]
	}

	if len(b.buf) > b.max {
		b.buf = nil
		return frames, ErrFrameTooLarge
	}
	return frames, nil
}

// Len returns the number of buffered bytes awaiting a delimiter.
func (b *FrameBuffer) Len() int {
	return len(b.buf)
}

// Max returns the configured per-frame size limit.
func (b *FrameBuffer) Max() int {
	return b.max
}

// Reset discards any buffered partial message. The buffer is reusable
// afterwards.
func (b *FrameBuffer) Reset() {
	b.buf = nil
}
