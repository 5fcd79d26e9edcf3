package request

import (
	"bytes"
	"encoding/json"
	"maps"
	"net/http"
)

// Method is one of the HTTP methods a Descriptor may use.
type Method string

const (
	MethodOptions Method = http.MethodOptions
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodTrace   Method = http.MethodTrace
	MethodConnect Method = http.MethodConnect
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodOptions, MethodGet, MethodHead, MethodPost, MethodPut,
		MethodPatch, MethodDelete, MethodTrace, MethodConnect:
		return true
	default:
		return false
	}
}

// Encoding is a bitset of payload encodings. Modes combine: JSON together
// with QueryString sends the payload both in the URL and as a JSON body.
type Encoding uint8

const (
	// EncodingJSON sends the payload as a JSON body and sets JSON
	// Accept/Content-Type headers.
	EncodingJSON Encoding = 1 << iota
	// EncodingQueryString appends the payload to the URL query.
	EncodingQueryString
	// EncodingFormBody sends the payload as an url-encoded body. Ignored when
	// EncodingJSON is also set.
	EncodingFormBody
)

// Has reports whether all bits of mode are set in e.
func (e Encoding) Has(mode Encoding) bool {
	return e&mode == mode
}

// AuthMethod tells the pipeline whether to attach a bearer token.
type AuthMethod int

const (
	// AuthBearer attaches "Authorization: Bearer <token>". It is the zero value.
	AuthBearer AuthMethod = iota
	// AuthNone sends the request without credentials.
	AuthNone
)

// Field is one payload entry.
type Field struct {
	Key   string
	Value any
}

// Payload is an ordered mapping of keys to JSON-compatible values.
type Payload []Field

// Add returns a copy of p with key set to value appended.
func (p Payload) Add(key string, value any) Payload {
	out := make(Payload, len(p), len(p)+1)
	copy(out, p)
	return append(out, Field{Key: key, Value: value})
}

// MarshalJSON encodes p as a JSON object, preserving field order.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Descriptor is an immutable description of one logical request. The With
// methods return modified copies.
type Descriptor struct {
	Endpoint string
	Method   Method
	Encoding Encoding
	Headers  map[string]string
	Auth     AuthMethod
	Payload  Payload
	// Data, when non-nil, is sent verbatim and overrides payload encoding.
	Data []byte
}

// New returns a Descriptor with JSON encoding and bearer authentication.
func New(method Method, endpoint string) Descriptor {
	return Descriptor{
		Endpoint: endpoint,
		Method:   method,
		Encoding: EncodingJSON,
		Auth:     AuthBearer,
	}
}

// WithEncoding returns a copy with the given encoding.
func (d Descriptor) WithEncoding(e Encoding) Descriptor {
	d.Encoding = e
	return d
}

// WithAuth returns a copy with the given authentication method.
func (d Descriptor) WithAuth(a AuthMethod) Descriptor {
	d.Auth = a
	return d
}

// WithHeader returns a copy with the header set.
func (d Descriptor) WithHeader(name, value string) Descriptor {
	headers := make(map[string]string, len(d.Headers)+1)
	maps.Copy(headers, d.Headers)
	headers[name] = value
	d.Headers = headers
	return d
}

// WithPayload returns a copy with the given payload.
func (d Descriptor) WithPayload(p Payload) Descriptor {
	d.Payload = p
	return d
}

// WithData returns a copy carrying raw body bytes.
func (d Descriptor) WithData(data []byte) Descriptor {
	d.Data = data
	return d
}
