// Package util holds small transport helpers shared by the outbound clients.
package util

import (
	"net/http"
	"net/url"
	"time"
)

// ProxyConfig selects explicit proxies. Empty fields fall back to the
// HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment.
type ProxyConfig struct {
	HTTPProxy  string
	HTTPSProxy string
}

// ProxyFunc returns the proxy selector for cfg.
func (cfg ProxyConfig) ProxyFunc() func(*http.Request) (*url.URL, error) {
	if cfg.HTTPProxy == "" && cfg.HTTPSProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && cfg.HTTPSProxy != "" {
			return url.Parse(cfg.HTTPSProxy)
		}
		if cfg.HTTPProxy != "" {
			return url.Parse(cfg.HTTPProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// NewHTTPClient builds the client used for search, verification and LLM calls.
// A zero timeout selects the fallback.
func NewHTTPClient(timeout, fallback time.Duration, proxy ProxyConfig) *http.Client {
	if timeout <= 0 {
		timeout = fallback
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy.ProxyFunc()
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Seconds converts a config value in whole seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
