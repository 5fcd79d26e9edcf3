package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrBuild wraps malformed endpoints and payloads that cannot be encoded.
var ErrBuild = errors.New("request: build failed")

// Builder turns Descriptors into *http.Request values.
type Builder struct {
	defaultHeaders map[string]string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithDefaultHeaders replaces the default headers sent with every request.
// Descriptor headers win on conflict.
func WithDefaultHeaders(headers map[string]string) BuilderOption {
	return func(b *Builder) {
		b.defaultHeaders = maps.Clone(headers)
		if b.defaultHeaders == nil {
			b.defaultHeaders = map[string]string{}
		}
	}
}

// WithLanguage sets Accept-Language and Content-Language.
func WithLanguage(lang string) BuilderOption {
	return func(b *Builder) {
		b.defaultHeaders["Accept-Language"] = lang
		b.defaultHeaders["Content-Language"] = lang
	}
}

// WithTimezone sets X-Local-Timezone.
func WithTimezone(tz string) BuilderOption {
	return func(b *Builder) {
		b.defaultHeaders["X-Local-Timezone"] = tz
	}
}

// NewBuilder creates a Builder. By default it sends Accept-Language and
// Content-Language derived from $LANG, and X-Local-Timezone from $TZ or the
// local zone name.
func NewBuilder(opts ...BuilderOption) *Builder {
	lang := systemLanguage()
	b := &Builder{
		defaultHeaders: map[string]string{
			"Accept-Language":  lang,
			"Content-Language": lang,
			"X-Local-Timezone": systemTimezone(),
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// DefaultHeaders returns a copy of the headers added to every request.
func (b *Builder) DefaultHeaders() map[string]string {
	return maps.Clone(b.defaultHeaders)
}

// Build creates the transport request for d.
func (b *Builder) Build(ctx context.Context, d Descriptor) (*http.Request, error) {
	if !d.Method.Valid() {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrBuild, d.Method)
	}

	u, err := b.buildURL(d)
	if err != nil {
		return nil, err
	}

	body, formEncoded, err := buildBody(d)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, string(d.Method), u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	for name, value := range b.defaultHeaders {
		req.Header.Set(name, value)
	}
	for name, value := range d.Headers {
		req.Header.Set(name, value)
	}

	if d.Encoding.Has(EncodingJSON) {
		setIfAbsent(req.Header, "Accept", "application/json")
		setIfAbsent(req.Header, "Content-Type", "application/json")
	}
	if formEncoded {
		setIfAbsent(req.Header, "Content-Type", "application/x-www-form-urlencoded")
	}

	return req, nil
}

func (b *Builder) buildURL(d Descriptor) (*url.URL, error) {
	u, err := url.Parse(d.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q: %w", ErrBuild, d.Endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: endpoint %q must be absolute", ErrBuild, d.Endpoint)
	}

	if d.Payload != nil && d.Encoding.Has(EncodingQueryString) {
		params := make([]string, 0, len(d.Payload))
		for _, field := range d.Payload {
			value, err := formatValue(field.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: query parameter %q: %w", ErrBuild, field.Key, err)
			}
			params = append(params, escape(field.Key)+"="+escape(value))
		}
		query := strings.Join(params, "&")
		if u.RawQuery != "" {
			query = u.RawQuery + "&" + query
		}
		u.RawQuery = query
	}

	return u, nil
}

// buildBody returns the request body and whether it is form encoded. Raw
// data always wins over the payload.
func buildBody(d Descriptor) ([]byte, bool, error) {
	if d.Data != nil {
		return d.Data, false, nil
	}
	if d.Payload == nil {
		return nil, false, nil
	}

	switch {
	case d.Encoding.Has(EncodingJSON):
		body, err := json.Marshal(d.Payload)
		if err != nil {
			return nil, false, fmt.Errorf("%w: payload is not valid JSON: %w", ErrBuild, err)
		}
		return body, false, nil
	case d.Encoding.Has(EncodingFormBody):
		pairs := make([]string, 0, len(d.Payload))
		for _, field := range d.Payload {
			value, err := formatValue(field.Value)
			if err != nil {
				return nil, false, fmt.Errorf("%w: form field %q: %w", ErrBuild, field.Key, err)
			}
			pairs = append(pairs, escape(field.Key)+"="+escape(value))
		}
		return []byte(strings.Join(pairs, "&")), true, nil
	default:
		return nil, false, nil
	}
}

// formatValue renders scalars as text and everything else as JSON.
func formatValue(v any) (string, error) {
	switch value := v.(type) {
	case nil:
		return "", nil
	case string:
		return value, nil
	case fmt.Stringer:
		return value.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(value), nil
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// escape percent-encodes s for use in a query or form body; spaces become
// %20 rather than '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func setIfAbsent(h http.Header, name, value string) {
	if h.Get(name) == "" {
		h.Set(name, value)
	}
}

func systemLanguage() string {
	for _, env := range []string{"LC_ALL", "LANG"} {
		value := os.Getenv(env)
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		// "de_DE.UTF-8" -> "de"
		value, _, _ = strings.Cut(value, ".")
		value, _, _ = strings.Cut(value, "_")
		value, _, _ = strings.Cut(value, "-")
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return "en"
}

func systemTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	return time.Local.String()
}
