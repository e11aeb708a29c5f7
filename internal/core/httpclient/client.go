// Package httpclient configures the HTTP client used to call the Flickr API.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewOutbound creates an outbound client. connect bounds dialing and the TLS
// handshake; total bounds the whole exchange including reading the body.
func NewOutbound(connect, total time.Duration) *http.Client {
	if connect <= 0 {
		connect = 2 * time.Second
	}
	if total <= 0 {
		total = 5 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: total,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   total,
	}
}
