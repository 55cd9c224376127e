// Package httpserver constructs the process-wide http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for addr with a read-header timeout, so a stalled
// client cannot hold a connection open indefinitely.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
