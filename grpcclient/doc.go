// Package grpcclient provides a fluent builder for gRPC client connections
// that authenticate with a session.Manager.
//
// It defaults to TLS 1.2+ using system roots to avoid accidental plaintext
// connections. WithSession chains the session's interceptors so every RPC
// carries "authorization: Bearer <token>" from the same secret store the HTTP
// pipeline uses.
//
// # Quick Start
//
//	manager := session.NewManager(store, exchanger)
//
//	conn, err := grpcclient.NewBuilder().
//	    WithAddress("server.example.com:9090").
//	    WithSession(manager).
//	    WithTLS("/path/to/ca.crt", "", "", "server.example.com").
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
// Both cert and key must be provided together for mTLS.
package grpcclient
