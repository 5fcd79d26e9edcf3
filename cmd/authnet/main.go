// Command authnet sends one authenticated request and prints the response
// body.
//
// Usage:
//
//	authnet [flags] URL
//
// Configuration is read from AUTHNET_* environment variables (see package
// config). Example:
//
//	AUTHNET_OAUTH2__TOKEN_URL=https://auth.example.com/oauth/v2/token \
//	AUTHNET_OAUTH2__CLIENT_ID=cli \
//	authnet -refresh-token "$RT" -X POST -d '{"name":"x"}' https://api.example.com/items
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AmmannChristian/go-authnet/config"
	"github.com/AmmannChristian/go-authnet/httpclient"
	"github.com/AmmannChristian/go-authnet/internal/app"
	"github.com/AmmannChristian/go-authnet/internal/logging"
	"github.com/AmmannChristian/go-authnet/request"
	"github.com/AmmannChristian/go-authnet/secretstore"
	"github.com/AmmannChristian/go-authnet/session"
)

type headerFlags map[string]string

func (h headerFlags) String() string {
	pairs := make([]string, 0, len(h))
	for k, v := range h {
		pairs = append(pairs, k+": "+v)
	}
	return strings.Join(pairs, ", ")
}

func (h headerFlags) Set(value string) error {
	name, v, ok := strings.Cut(value, ":")
	if !ok {
		return fmt.Errorf("header %q must be Name: value", value)
	}
	h[strings.TrimSpace(name)] = strings.TrimSpace(v)
	return nil
}

type options struct {
	method       string
	data         string
	form         bool
	noAuth       bool
	envFile      string
	refreshToken string
	authCode     string
	verifier     string
	logout       bool
	headers      headerFlags
	url          string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	opts := options{headers: headerFlags{}}

	fs := flag.NewFlagSet("authnet", flag.ContinueOnError)
	fs.StringVar(&opts.method, "X", "GET", "HTTP method")
	fs.StringVar(&opts.data, "d", "", "raw request body, or key=value&... fields with -form")
	fs.BoolVar(&opts.form, "form", false, "send -d as key=value&... form fields")
	fs.BoolVar(&opts.noAuth, "no-auth", false, "send without a bearer token")
	fs.StringVar(&opts.envFile, "env-file", "", "load configuration from this .env file")
	fs.StringVar(&opts.refreshToken, "refresh-token", "", "seed the secret store with this refresh token")
	fs.StringVar(&opts.authCode, "code", "", "exchange this authorization code before sending")
	fs.StringVar(&opts.verifier, "code-verifier", "", "PKCE verifier for -code")
	fs.BoolVar(&opts.logout, "logout", false, "clear stored credentials and exit")
	fs.Var(opts.headers, "H", "extra header 'Name: value' (repeatable)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.logout {
		return opts, nil
	}
	if fs.NArg() != 1 {
		return opts, errors.New("usage: authnet [flags] URL")
	}
	opts.url = fs.Arg(0)

	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	states := a.Session.State().Observe(ctx)
	go func() {
		for state := range states {
			logger.Info().Stringer("state", state).Msg("auth state changed")
		}
	}()

	if opts.logout {
		return a.Session.Invalidate(ctx)
	}

	if opts.refreshToken != "" {
		if err := a.Store.Set(ctx, secretstore.RefreshToken, opts.refreshToken); err != nil {
			return err
		}
	}
	if opts.authCode != "" {
		creds := session.AuthorizationCode{Code: opts.authCode, Verifier: opts.verifier}
		if _, err := a.Session.Authenticate(ctx, creds); err != nil {
			return err
		}
	}

	resp, err := a.Client.Send(ctx, descriptor(opts))
	if err != nil {
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) {
			_, _ = out.Write(apiErr.Body)
		}
		return err
	}

	_, err = out.Write(resp.Body)
	return err
}

func descriptor(opts options) request.Descriptor {
	d := request.New(request.Method(strings.ToUpper(opts.method)), opts.url)
	for name, value := range opts.headers {
		d = d.WithHeader(name, value)
	}
	if opts.noAuth {
		d = d.WithAuth(request.AuthNone)
	}

	switch {
	case opts.data == "":
	case opts.form:
		values := strings.Split(opts.data, "&")
		payload := make(request.Payload, 0, len(values))
		for _, pair := range values {
			key, value, _ := strings.Cut(pair, "=")
			payload = payload.Add(key, value)
		}
		d = d.WithEncoding(request.EncodingFormBody).WithPayload(payload)
	default:
		d = d.WithData([]byte(opts.data))
	}

	return d
}
