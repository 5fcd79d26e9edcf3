package grpcclient_test

import (
	"context"
	"fmt"
	"log"

	"github.com/AmmannChristian/go-authnet/grpcclient"
	"github.com/AmmannChristian/go-authnet/secretstore"
	"github.com/AmmannChristian/go-authnet/session"
)

// Example demonstrates a connection that authenticates every RPC with a
// session. The connection is lazy, so no network traffic happens here.
func Example() {
	ctx := context.Background()

	exchanger := session.NewOAuth2Exchanger(
		"https://auth.example.com/oauth/v2/token",
		"client-id",
		"client-secret",
		"openid profile",
	)
	manager := session.NewManager(secretstore.NewMemory(), exchanger,
		session.WithDefaultCredentials(session.ClientCredentials{}))

	conn, err := grpcclient.NewBuilder().
		WithAddress("server.example.com:9090").
		WithSession(manager).
		Build(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	fmt.Println(conn.Target())
	// Output: server.example.com:9090
}

// ExampleBuilder_WithTLS demonstrates server verification with a custom CA.
func ExampleBuilder_WithTLS() {
	_, err := grpcclient.NewBuilder().
		WithAddress("secure.example.com:9090").
		WithTLS("/nonexistent/ca.crt", "", "", "secure.example.com").
		Build(context.Background())

	fmt.Println(err != nil)
	// Output: true
}

// ExampleBuilder_WithPlaintext demonstrates a local development connection.
func ExampleBuilder_WithPlaintext() {
	conn, err := grpcclient.NewBuilder().
		WithAddress("localhost:9090").
		WithPlaintext().
		Build(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	fmt.Println("plaintext connection to", conn.Target())
	// Output: plaintext connection to localhost:9090
}
