// Package request describes logical HTTP requests and turns them into
// *http.Request values.
//
// A Descriptor is an immutable value naming the endpoint, method, payload
// encoding and authentication method. The Builder encodes the payload (JSON
// body, query string, form body or raw bytes) and merges its default headers
// with the descriptor's own.
//
// # Features
//
//   - Ordered JSON payloads: keys are emitted in insertion order
//   - Combined encodings (query string together with a JSON body)
//   - Spaces in query and form values are escaped as %20
//   - Default Accept-Language, Content-Language and X-Local-Timezone headers
//
// # Quick Start
//
//	b := request.NewBuilder(request.WithLanguage("de"))
//
//	d := request.New(request.MethodGet, "https://api.example.com/search").
//		WithEncoding(request.EncodingQueryString).
//		WithPayload(request.Payload{}.Add("q", "golang"))
//
//	req, err := b.Build(ctx, d)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Build failures wrap ErrBuild.
package request
