package main

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/AmmannChristian/go-authnet/request"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-X", "post", "-d", `{"a":1}`, "-H", "X-Trace: abc", "-no-auth", "https://api.example.com/items"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if opts.method != "post" || opts.data != `{"a":1}` || !opts.noAuth {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.headers["X-Trace"] != "abc" {
		t.Errorf("unexpected headers %v", opts.headers)
	}
	if opts.url != "https://api.example.com/items" {
		t.Errorf("unexpected url %q", opts.url)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := [][]string{
		{},
		{"-H", "no-colon", "https://api.example.com"},
		{"https://a.example.com", "https://b.example.com"},
	}

	for _, args := range tests {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestParseFlags_LogoutNeedsNoURL(t *testing.T) {
	opts, err := parseFlags([]string{"-logout"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if !opts.logout {
		t.Error("logout should be set")
	}
}

func TestDescriptor(t *testing.T) {
	tests := []struct {
		name     string
		opts     options
		wantBody string
		wantAuth request.AuthMethod
	}{
		{
			name:     "raw JSON",
			opts:     options{method: "post", data: `{"b":2,"a":1}`, url: "https://api.example.com"},
			wantBody: `{"b":2,"a":1}`,
			wantAuth: request.AuthBearer,
		},
		{
			name:     "form fields",
			opts:     options{method: "POST", data: "user=jo doe&x=1", form: true, url: "https://api.example.com"},
			wantBody: "user=jo%20doe&x=1",
			wantAuth: request.AuthBearer,
		},
		{
			name:     "no auth",
			opts:     options{method: "GET", noAuth: true, url: "https://api.example.com"},
			wantAuth: request.AuthNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := descriptor(tt.opts)
			if d.Auth != tt.wantAuth {
				t.Errorf("unexpected auth %v", d.Auth)
			}

			req, err := request.NewBuilder().Build(context.Background(), d)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			var body string
			if req.Body != nil && req.Body != http.NoBody {
				raw, _ := io.ReadAll(req.Body)
				body = string(raw)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}
