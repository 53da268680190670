// Package httputil holds the JSON request and response helpers of the live
// server.
//
// Errors are written as
//
//	{"error": "invalid config JSON", "code": "INVALID_CONFIG"}
//
// with an HTTP status derived from the error code by [StatusFor]. Request
// bodies are size-limited and decoded strictly by [DecodeJSON].
package httputil
