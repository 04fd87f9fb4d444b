// Package client is a thin HTTP client for the medchat API. It keeps the
// access token obtained on register or login and attaches it to every
// authenticated call.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable, 401 replies wrap ErrUnauthorized
// and every other non-2xx reply is an *APIError with the server's detail.
package client
