package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/AmmannChristian/go-authnet/httpstatus"
)

var (
	// ErrTransport wraps network and I/O failures from the Executor.
	ErrTransport = errors.New("httpclient: transport failure")

	// ErrAPI matches every *APIError.
	ErrAPI = errors.New("httpclient: api error")

	// ErrDecode wraps typed decode failures after a successful response.
	ErrDecode = errors.New("httpclient: decode failed")

	// ErrCancelled is returned when the caller's context ends during a send.
	ErrCancelled = errors.New("httpclient: request cancelled")

	// ErrNoSession is returned when a Client without an Authenticator has to
	// attach a token or refresh after a 401.
	ErrNoSession = errors.New("httpclient: session required but none configured")
)

// Response is a fully read transport response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Status returns the status code as an httpstatus.Status.
func (r *Response) Status() httpstatus.Status {
	return httpstatus.StatusFromCode(r.StatusCode)
}

// Category returns the semantic category of the status code.
func (r *Response) Category() httpstatus.Category {
	return httpstatus.Classify(r.StatusCode)
}

// Text returns the body as a string if it is valid UTF-8.
func (r *Response) Text() (string, bool) {
	return bodyText(r.Body)
}

// JSON decodes the body as generic JSON. It reports false for empty or
// malformed bodies.
func (r *Response) JSON() (any, bool) {
	if len(r.Body) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, false
	}
	return v, true
}

// APIError is returned for responses outside the success category.
type APIError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// maxErrorText bounds the body excerpt in APIError.Error.
const maxErrorText = 512

func (e *APIError) Error() string {
	text, ok := e.Text()
	if !ok || text == "" {
		return fmt.Sprintf("httpclient: api error: status %d", e.StatusCode)
	}
	if len(text) > maxErrorText {
		n := maxErrorText
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n] + "..."
	}
	return fmt.Sprintf("httpclient: api error: status %d: %s", e.StatusCode, text)
}

// Is makes errors.Is(err, ErrAPI) match.
func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

// Text returns the body as a string if it is valid UTF-8.
func (e *APIError) Text() (string, bool) {
	return bodyText(e.Body)
}

// Category returns the semantic category of the status code.
func (e *APIError) Category() httpstatus.Category {
	return httpstatus.Classify(e.StatusCode)
}

func bodyText(body []byte) (string, bool) {
	if body == nil || !utf8.Valid(body) {
		return "", false
	}
	return string(body), true
}
