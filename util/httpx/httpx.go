// Package httpx holds the shared outbound HTTP client. The only remote we
// talk to is the payment gateway, so one tuned client is enough.
package httpx

import (
	"net"
	"net/http"
	"time"
)

var defaultClient = &http.Client{
	// invoice creation is synchronous with the user's request, keep it tight
	Timeout: 10 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        50,
		MaxConnsPerHost:     50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

func Client() *http.Client { return defaultClient }
