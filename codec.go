// codec.go
package qlab

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
)

// Reserved keys marking a JSON object that needs custom decode logic.
const (
	ObjectKey  = "__object__"
	ContentKey = "__content__"
)

// Tags pre-registered by NewCodec.
const (
	ArrayTag   = "array"
	DataSetTag = "dataset"
)

// UnknownTagError is returned when decoding meets a tagged object whose
// tag has no registered decoder. Decoding never guesses.
type UnknownTagError struct {
	Tag string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown object tag %q", e.Tag)
}

// EncodeFunc converts a registered value into a JSON-compatible payload.
type EncodeFunc func(value any) (any, error)

// DecodeFunc rebuilds a registered value from its decoded payload.
type DecodeFunc func(content any) (any, error)

type tagCodec struct {
	encode EncodeFunc
	decode DecodeFunc
}

/*
Codec encodes values not natively representable in JSON into tagged
objects {"__object__": tag, "__content__": payload} and inverts the
mapping on decode.

The registry is an explicit value rather than package state: each
process builds its codec at startup, registers its record types, and
passes it wherever serialization happens. Registering a tag twice
overwrites the previous encoder/decoder pair.
*/
type Codec struct {
	byTag  map[string]tagCodec
	byType map[reflect.Type]string
}

// NewCodec returns a codec with the built-in array and dataset tags
// registered.
func NewCodec() *Codec {
	c := &Codec{
		byTag:  make(map[string]tagCodec),
		byType: make(map[reflect.Type]string),
	}
	c.Register(ArrayTag, (*Array)(nil), encodeArray, decodeArray)
	c.Register(DataSetTag, (*DataSet)(nil), encodeDataSet, decodeDataSet)
	return c
}

// Register binds a tag to an encoder/decoder pair. The prototype fixes
// the Go type dispatched to this encoder; its value is ignored.
func (c *Codec) Register(tag string, prototype any, encode EncodeFunc, decode DecodeFunc) {
	rtype := reflect.TypeOf(prototype)

	// Drop a stale type binding when the tag is re-registered.
	for t, existing := range c.byType {
		if existing == tag && t != rtype {
			delete(c.byType, t)
		}
	}
	c.byTag[tag] = tagCodec{encode: encode, decode: decode}
	c.byType[rtype] = tag
}

// Encode converts a value into its JSON-compatible form. Native JSON
// values pass through untouched; containers are walked recursively;
// registered types become tagged objects.
func (c *Codec) Encode(value any) (any, error) {
	switch v := value.(type) {
	case nil, bool, string,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number,
		[]float64, []int, []string:
		return value, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			enc, err := c.Encode(elem)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			enc, err := c.Encode(elem)
			if err != nil {
				return nil, err
			}
			out[key] = enc
		}
		return out, nil
	}

	tag, ok := c.byType[reflect.TypeOf(value)]
	if !ok {
		return nil, fmt.Errorf("cannot encode unregistered type %T", value)
	}
	payload, err := c.byTag[tag].encode(value)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", tag, err)
	}
	content, err := c.Encode(payload)
	if err != nil {
		return nil, err
	}
	return map[string]any{ObjectKey: tag, ContentKey: content}, nil
}

// Decode inverts Encode. Tagged objects dispatch to their registered
// decoder; an unregistered tag is an error.
func (c *Codec) Decode(value any) (any, error) {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			dec, err := c.Decode(elem)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	case map[string]any:
		rawTag, tagged := v[ObjectKey]
		if !tagged {
			out := make(map[string]any, len(v))
			for key, elem := range v {
				dec, err := c.Decode(elem)
				if err != nil {
					return nil, err
				}
				out[key] = dec
			}
			return out, nil
		}

		tag, ok := rawTag.(string)
		if !ok {
			return nil, fmt.Errorf("object tag must be a string, got %T", rawTag)
		}
		tc, ok := c.byTag[tag]
		if !ok {
			return nil, &UnknownTagError{Tag: tag}
		}
		content, err := c.Decode(v[ContentKey])
		if err != nil {
			return nil, err
		}
		decoded, err := tc.decode(content)
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", tag, err)
		}
		return decoded, nil
	}
	return value, nil
}

// Marshal encodes a value and renders it as JSON text.
func (c *Codec) Marshal(value any) ([]byte, error) {
	enc, err := c.Encode(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(enc)
}

// MarshalIndent is Marshal with human-readable indentation, the form
// used for datasets on disk.
func (c *Codec) MarshalIndent(value any) ([]byte, error) {
	enc, err := c.Encode(value)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(enc, "", "  ")
}

// Unmarshal parses JSON text and decodes any tagged objects in it.
func (c *Codec) Unmarshal(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return c.Decode(raw)
}

func encodeArray(value any) (any, error) {
	a, ok := value.(*Array)
	if !ok {
		return nil, fmt.Errorf("array encoder got %T", value)
	}
	return map[string]any{
		"dtype": string(a.Dtype),
		"shape": a.Shape,
		"data":  base64.StdEncoding.EncodeToString(a.data),
	}, nil
}

func decodeArray(content any) (any, error) {
	m, ok := content.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("array content must be an object, got %T", content)
	}
	dtype, ok := m["dtype"].(string)
	if !ok {
		return nil, fmt.Errorf("array content has no dtype")
	}
	shape, err := toIntSlice(m["shape"])
	if err != nil {
		return nil, fmt.Errorf("array shape: %w", err)
	}
	encoded, ok := m["data"].(string)
	if !ok {
		return nil, fmt.Errorf("array content has no data")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("array data: %w", err)
	}
	return arrayFromBytes(Dtype(dtype), shape, data)
}

// toIntSlice accepts the two shapes a shape can arrive in: []int when
// decoding an in-memory Encode result, []any of float64 after a JSON
// round trip.
func toIntSlice(value any) ([]int, error) {
	switch v := value.(type) {
	case []int:
		return append([]int(nil), v...), nil
	case []any:
		out := make([]int, len(v))
		for i, elem := range v {
			f, ok := elem.(float64)
			if !ok || f != float64(int(f)) {
				return nil, fmt.Errorf("not an integer: %v", elem)
			}
			out[i] = int(f)
		}
		return out, nil
	}
	return nil, fmt.Errorf("not an integer list: %T", value)
}
