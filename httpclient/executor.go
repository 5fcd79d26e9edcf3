package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

// Executor sends one transport request and returns the fully read response.
type Executor interface {
	Execute(req *http.Request) (*Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(req *http.Request) (*Response, error)

// Execute calls f.
func (f ExecutorFunc) Execute(req *http.Request) (*Response, error) {
	return f(req)
}

// HTTPExecutor is an Executor backed by *http.Client.
type HTTPExecutor struct {
	Client *http.Client
}

// NewHTTPExecutor creates an HTTPExecutor. A nil client uses http.DefaultClient.
func NewHTTPExecutor(client *http.Client) *HTTPExecutor {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPExecutor{Client: client}
}

// Execute performs req, reads the body fully and closes it.
func (e *HTTPExecutor) Execute(req *http.Request) (*Response, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
