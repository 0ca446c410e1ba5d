package jsonline

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Message is one logical unit of application data carried in a frame.
type Message interface {
	// Length returns the length of the message body.
	Length() int
	// Body returns the raw message data, delimiter excluded.
	Body() []byte
}

// Codec translates between frame payloads and Messages.
//
// Decode receives one complete frame with the trailing delimiter already
// stripped; stream reassembly is handled by the FrameBuffer, so a codec
// never sees a partial message. Encode produces the full wire form of a
// message, including the trailing delimiter.
type Codec interface {
	Decode(frame []byte) (Message, error)
	Encode(Message) ([]byte, error)
}

// DecodeError reports a frame whose payload could not be parsed. It is
// distinct from framing errors such as ErrFrameTooLarge: the stream
// itself is still well formed, so the connection may keep reading.
type DecodeError struct {
	FrameLen int
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame (%d bytes): %v", e.FrameLen, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// JSONMessage is a Message holding one JSON value in compact text form.
type JSONMessage struct {
	raw json.RawMessage
}

// NewJSONMessage marshals v into a JSONMessage.
func NewJSONMessage(v any) (JSONMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return JSONMessage{}, err
	}
	return JSONMessage{raw: raw}, nil
}

func (m JSONMessage) Length() int {
	return len(m.raw)
}

func (m JSONMessage) Body() []byte {
	return m.raw
}

// Unmarshal parses the message body into v.
func (m JSONMessage) Unmarshal(v any) error {
	return json.Unmarshal(m.raw, v)
}

// JSONCodec frames JSON values as newline-delimited text. Decoded
// messages are JSONMessage values; Encode compacts the body so that no
// raw delimiter byte can appear inside a frame.
type JSONCodec struct{}

func (JSONCodec) Decode(frame []byte) (Message, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(frame, &raw); err != nil {
		return nil, &DecodeError{FrameLen: len(frame), Err: err}
	}
	return JSONMessage{raw: raw}, nil
}

func (JSONCodec) Encode(message Message) ([]byte, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, message.Body()); err != nil {
		return nil, &DecodeError{FrameLen: message.Length(), Err: err}
	}
	return append(compact.Bytes(), Delimiter), nil
}
