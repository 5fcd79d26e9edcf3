// Package httpclient sends authenticated HTTP requests described by
// request.Descriptor values.
//
// Client is the request pipeline. For each logical request it builds the
// transport request, attaches a bearer token from the session, dispatches it
// through an Executor and classifies the status. A 401 on the first attempt
// refreshes the session once and retries once; a second 401 is returned to
// the caller as an *APIError. Concurrent 401s rejected with the same token
// share a single refresh when the session implements Renewer, as
// *session.Manager does.
//
// # Features
//
//   - Single refresh-and-retry on 401, bounded by a retry budget
//   - X-Request-ID shared by both attempts of a logical request
//   - Typed decoding with SendJSON and SendDecode
//   - Fluent Builder with TLS 1.2+, custom CA/mTLS, timeouts and redirect control
//   - BearerTransport for plain http.Client users
//
// # Quick Start
//
//	manager := session.NewManager(secretstore.NewMemory(), exchanger)
//
//	client, err := httpclient.NewBuilder().
//	    WithSession(manager).
//	    WithTLS("/path/to/ca.crt", "", "").
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	type profile struct {
//	    Name string `json:"name"`
//	}
//	p, err := httpclient.SendJSON[profile](ctx, client,
//	    request.New(request.MethodGet, "https://api.example.com/me"))
//
// # Errors
//
// Failures wrap one of request.ErrBuild, ErrTransport, session.ErrAuth,
// ErrAPI, ErrDecode, secretstore.ErrStorage or ErrCancelled. Use errors.As
// with *APIError to read the status code and body.
//
// All components are safe for concurrent use if the provided session is.
package httpclient
