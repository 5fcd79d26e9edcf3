// Package httpstatus classifies HTTP status codes into semantic categories.
//
// Classify is a pure lookup: 2xx is Success, 3xx Redirection, 4xx ClientError,
// 5xx ServerError and everything else Unknown. Status adds reason phrases for
// the codes net/http knows plus a few proxy-specific ones (444, 499, 599).
package httpstatus
