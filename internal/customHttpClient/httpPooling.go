package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/smartsort/internal/config"
)

// one pooled transport for every outbound model, embedding and ping call
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewClient returns a client on the shared transport. A zero timeout means no client side limit.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
