package request

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"testing"
)

func readBody(t *testing.T, req *http.Request) string {
	t.Helper()

	if req.Body == nil {
		return ""
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body)
}

func TestBuild_JSONPayload(t *testing.T) {
	b := NewBuilder()
	d := New(MethodPost, "https://api.example.com/items").
		WithPayload(Payload{}.Add("a", 1))

	req, err := b.Build(context.Background(), d)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := readBody(t, req); got != `{"a":1}` {
		t.Errorf("unexpected body %q", got)
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("unexpected Content-Type %q", req.Header.Get("Content-Type"))
	}
	if req.Header.Get("Accept") != "application/json" {
		t.Errorf("unexpected Accept %q", req.Header.Get("Accept"))
	}
	if req.Method != http.MethodPost {
		t.Errorf("unexpected method %s", req.Method)
	}
}

func TestBuild_JSONPayloadKeepsOrder(t *testing.T) {
	d := New(MethodPost, "https://api.example.com/items").
		WithPayload(Payload{
			{Key: "z", Value: "last?"},
			{Key: "a", Value: []int{1, 2}},
			{Key: "m", Value: map[string]bool{"ok": true}},
			{Key: "n", Value: nil},
		})

	req, err := NewBuilder().Build(context.Background(), d)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := `{"z":"last?","a":[1,2],"m":{"ok":true},"n":null}`
	if got := readBody(t, req); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestBuild_QueryString(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		payload  Payload
		want     string
	}{
		{
			name:     "space escaped as %20",
			endpoint: "https://api.example.com/search",
			payload:  Payload{}.Add("q", "x y"),
			want:     "https://api.example.com/search?q=x%20y",
		},
		{
			name:     "appends to existing query",
			endpoint: "https://api.example.com/search?page=2",
			payload:  Payload{}.Add("q", "go"),
			want:     "https://api.example.com/search?page=2&q=go",
		},
		{
			name:     "keeps field order and formats scalars",
			endpoint: "https://api.example.com/search",
			payload:  Payload{}.Add("limit", 10).Add("exact", true).Add("tag", "a&b"),
			want:     "https://api.example.com/search?limit=10&exact=true&tag=a%26b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(MethodGet, tt.endpoint).
				WithEncoding(EncodingQueryString).
				WithPayload(tt.payload)

			req, err := NewBuilder().Build(context.Background(), d)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if got := req.URL.String(); got != tt.want {
				t.Errorf("URL = %s, want %s", got, tt.want)
			}
			if req.Body != nil && req.Body != http.NoBody {
				t.Error("query-string only request must not carry a body")
			}
			if req.Header.Get("Content-Type") != "" {
				t.Errorf("unexpected Content-Type %q", req.Header.Get("Content-Type"))
			}
		})
	}
}

func TestBuild_QueryStringAndJSON(t *testing.T) {
	d := New(MethodPost, "https://api.example.com/items").
		WithEncoding(EncodingJSON | EncodingQueryString).
		WithPayload(Payload{}.Add("id", "7"))

	req, err := NewBuilder().Build(context.Background(), d)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if req.URL.RawQuery != "id=7" {
		t.Errorf("unexpected query %q", req.URL.RawQuery)
	}
	if got := readBody(t, req); got != `{"id":"7"}` {
		t.Errorf("unexpected body %q", got)
	}
}

func TestBuild_FormBody(t *testing.T) {
	d := New(MethodPost, "https://api.example.com/login").
		WithEncoding(EncodingFormBody).
		WithPayload(Payload{}.Add("user name", "jo doe").Add("remember", true))

	req, err := NewBuilder().Build(context.Background(), d)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := readBody(t, req); got != "user%20name=jo%20doe&remember=true" {
		t.Errorf("unexpected body %q", got)
	}
	if req.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected Content-Type %q", req.Header.Get("Content-Type"))
	}
}

func TestBuild_RawDataWins(t *testing.T) {
	d := New(MethodPut, "https://api.example.com/blob").
		WithPayload(Payload{}.Add("ignored", true)).
		WithData([]byte("raw-bytes")).
		WithHeader("Content-Type", "application/octet-stream")

	req, err := NewBuilder().Build(context.Background(), d)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := readBody(t, req); got != "raw-bytes" {
		t.Errorf("unexpected body %q", got)
	}
	if req.Header.Get("Content-Type") != "application/octet-stream" {
		t.Errorf("descriptor Content-Type should win, got %q", req.Header.Get("Content-Type"))
	}
	if req.GetBody == nil {
		t.Error("expected replayable body")
	}
}

func TestBuild_Headers(t *testing.T) {
	b := NewBuilder(WithDefaultHeaders(map[string]string{
		"Accept-Language": "en",
		"X-Client":        "authnet",
	}))
	d := New(MethodGet, "https://api.example.com/me").
		WithHeader("Accept-Language", "fr").
		WithHeader("X-Trace", "abc")

	req, err := b.Build(context.Background(), d)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := map[string]string{
		"Accept-Language": "fr",
		"X-Client":        "authnet",
		"X-Trace":         "abc",
	}
	for name, want := range tests {
		if got := req.Header.Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestNewBuilder_Defaults(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LANG", "de_DE.UTF-8")
	t.Setenv("TZ", "Europe/Zurich")

	headers := NewBuilder().DefaultHeaders()

	if headers["Accept-Language"] != "de" || headers["Content-Language"] != "de" {
		t.Errorf("unexpected language headers %v", headers)
	}
	if headers["X-Local-Timezone"] != "Europe/Zurich" {
		t.Errorf("unexpected timezone %q", headers["X-Local-Timezone"])
	}
}

func TestNewBuilder_Options(t *testing.T) {
	headers := NewBuilder(WithLanguage("it"), WithTimezone("UTC")).DefaultHeaders()

	if headers["Accept-Language"] != "it" || headers["Content-Language"] != "it" {
		t.Errorf("unexpected language headers %v", headers)
	}
	if headers["X-Local-Timezone"] != "UTC" {
		t.Errorf("unexpected timezone %q", headers["X-Local-Timezone"])
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
	}{
		{name: "unparseable endpoint", d: New(MethodGet, "http://[::1")},
		{name: "relative endpoint", d: New(MethodGet, "/items")},
		{name: "missing host", d: New(MethodGet, "https://")},
		{name: "unsupported method", d: New(Method("BREW"), "https://api.example.com")},
		{name: "unencodable JSON", d: New(MethodPost, "https://api.example.com").WithPayload(Payload{}.Add("x", math.NaN()))},
		{name: "unencodable query", d: New(MethodGet, "https://api.example.com").
			WithEncoding(EncodingQueryString).
			WithPayload(Payload{}.Add("x", make(chan int)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder().Build(context.Background(), tt.d)
			if !errors.Is(err, ErrBuild) {
				t.Errorf("expected ErrBuild, got %v", err)
			}
		})
	}
}

func TestDescriptor_Immutable(t *testing.T) {
	base := New(MethodGet, "https://api.example.com").WithHeader("X-A", "1")
	derived := base.WithHeader("X-B", "2").WithAuth(AuthNone)

	if _, ok := base.Headers["X-B"]; ok {
		t.Error("WithHeader must not mutate the original descriptor")
	}
	if base.Auth != AuthBearer {
		t.Error("WithAuth must not mutate the original descriptor")
	}
	if derived.Headers["X-A"] != "1" || derived.Headers["X-B"] != "2" {
		t.Errorf("unexpected derived headers %v", derived.Headers)
	}

	p := Payload{}.Add("a", 1)
	_ = p.Add("b", 2)
	if len(p) != 1 {
		t.Error("Payload.Add must not mutate the receiver")
	}
}

func TestEncoding_Has(t *testing.T) {
	e := EncodingJSON | EncodingQueryString

	if !e.Has(EncodingJSON) || !e.Has(EncodingQueryString) {
		t.Error("expected both modes set")
	}
	if e.Has(EncodingFormBody) {
		t.Error("form body should not be set")
	}
	if Encoding(0).Has(EncodingJSON) {
		t.Error("zero encoding has no modes")
	}
}
