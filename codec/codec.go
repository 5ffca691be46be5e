package codec

import "encoding/json"

type (
	Encoder interface {
		Encode(v any) (string, error)
	}

	Decoder interface {
		Decode(string, any) error
	}

	// A Codec converts session attribute values to and from
	// their storable string form
	Codec interface {
		Encoder
		Decoder
	}

	jsonCodec struct {
	}
)

var _ Codec = (*jsonCodec)(nil)

// JSON is the default Codec
var JSON Codec = &jsonCodec{}

func NewCodec() Codec {
	return &jsonCodec{}
}

func (c *jsonCodec) Encode(v any) (string, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func (c *jsonCodec) Decode(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}
