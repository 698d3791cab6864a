package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. The write timeout leaves headroom over the 30s
// request timeout the router's middleware enforces, so slow handlers are cut
// off with a JSON error rather than a dropped connection.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       35 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
