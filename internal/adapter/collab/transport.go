package collab

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"ragchat/internal/infra/config"
)

// Connection pool sizing. The client talks to a single host and keeps at
// most two requests open (one upload, one chat).
const (
	defaultMaxIdleConns    = 4
	defaultMaxConnsPerHost = 4
	defaultIdleConnTimeout = 90 * time.Second
)

// NewPooledTransport creates an http.Transport for the assistant server.
func NewPooledTransport(connTimeout, respTimeout time.Duration) *http.Transport {
	if connTimeout <= 0 {
		connTimeout = 10 * time.Second
	}
	if respTimeout <= 0 {
		respTimeout = 120 * time.Second
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: respTimeout,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConns,
		MaxConnsPerHost:       defaultMaxConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ForceAttemptHTTP2:     true,
	}
}

// NewHTTPClient builds the *http.Client used by Client from server settings.
// The overall deadline covers dialing plus waiting for the reply.
func NewHTTPClient(cfg config.ServerConfig) *http.Client {
	return &http.Client{
		Transport: NewPooledTransport(cfg.ConnTimeout, cfg.RespTimeout),
		Timeout:   cfg.ConnTimeout + cfg.RespTimeout,
	}
}

// newBreaker returns nil when the breaker is disabled. Only transport
// failures count against it: a server that answers, even with a declared
// failure or garbage, is reachable.
func newBreaker(cfg config.BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[*exchange] {
	if !cfg.Enabled {
		return nil
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker[*exchange](gobreaker.Settings{
		Name:        "collab",
		MaxRequests: 1, // one trial request while half-open
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}
