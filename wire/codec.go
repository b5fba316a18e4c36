package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

// Codec turns messages into frame payloads. JSON is used for text frames and
// CBOR for binary frames; both read the json struct tags.
type Codec interface {
	Name() string
	// Binary reports whether payloads travel in binary frames.
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	JSON Codec = jsonCodec{}
	CBOR Codec = newCBORCodec()
)

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Binary() bool                       { return false }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return cborCodec{enc: enc, dec: dec}
}

func (cborCodec) Name() string                         { return "cbor" }
func (cborCodec) Binary() bool                         { return true }
func (c cborCodec) Marshal(v any) ([]byte, error)      { return c.enc.Marshal(v) }
func (c cborCodec) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }

// Encode stamps the type tag on m and marshals it.
func Encode(c Codec, m Message) ([]byte, error) {
	m.header().Type = m.MessageType()
	data, err := c.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	return data, nil
}

// DecodeClient decodes a message sent by a client.
func DecodeClient(c Codec, data []byte) (Message, error) {
	return decode(c, data, clientMessages)
}

// DecodeServer decodes a message sent by the server.
func DecodeServer(c Codec, data []byte) (Message, error) {
	return decode(c, data, serverMessages)
}

func decode(c Codec, data []byte, known map[string]func() Message) (Message, error) {
	var h Header
	if err := c.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if h.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	newMessage, ok := known[h.Type]
	if !ok {
		return nil, fmt.Errorf("%w %q: %w", ErrMalformed, h.Type, ErrUnknownType)
	}
	m := newMessage()
	if err := c.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, h.Type, err)
	}
	return m, nil
}
