package httpstatus

import "net/http"

// Category is the semantic class of an HTTP status code.
type Category string

const (
	// Success covers 200-299.
	Success Category = "success"
	// Redirection covers 300-399.
	Redirection Category = "redirection"
	// ClientError covers 400-499.
	ClientError Category = "client-error"
	// ServerError covers 500-599.
	ServerError Category = "server-error"
	// Unknown is returned for every other code, including StatusUnknown.
	Unknown Category = "unknown"
)

// Classify maps a numeric status code to its Category. It is total: codes
// outside 200-599 (such as -1 for "no response received") yield Unknown.
func Classify(code int) Category {
	switch {
	case code >= 200 && code <= 299:
		return Success
	case code >= 300 && code <= 399:
		return Redirection
	case code >= 400 && code <= 499:
		return ClientError
	case code >= 500 && code <= 599:
		return ServerError
	default:
		return Unknown
	}
}

// IsUnauthorized reports whether code is exactly 401.
func IsUnauthorized(code int) bool {
	return code == http.StatusUnauthorized
}

// Status is a human readable HTTP status. Codes without a name collapse to
// StatusUnknown.
type Status int

// StatusUnknown is the sentinel for codes that are not part of the table,
// and for "no response received".
const StatusUnknown Status = -1

// Non-standard codes that net/http does not name.
const (
	StatusConnectionClosedWithoutResponse = 444
	StatusClientClosedRequest             = 499
	StatusNetworkConnectTimeoutError      = 599
)

var extraStatusText = map[int]string{
	StatusConnectionClosedWithoutResponse: "Connection Closed Without Response",
	StatusClientClosedRequest:             "Client Closed Request",
	StatusNetworkConnectTimeoutError:      "Network Connect Timeout Error",
}

// StatusFromCode returns the named Status for code, or StatusUnknown.
func StatusFromCode(code int) Status {
	if http.StatusText(code) != "" {
		return Status(code)
	}
	if _, ok := extraStatusText[code]; ok {
		return Status(code)
	}
	return StatusUnknown
}

// Code returns the numeric code.
func (s Status) Code() int {
	return int(s)
}

// Category classifies the status.
func (s Status) Category() Category {
	return Classify(int(s))
}

// String returns the reason phrase, e.g. "Unauthorized".
func (s Status) String() string {
	if s == StatusUnknown {
		return "Unknown"
	}
	if text := http.StatusText(int(s)); text != "" {
		return text
	}
	if text, ok := extraStatusText[int(s)]; ok {
		return text
	}
	return "Unknown"
}
