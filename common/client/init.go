package client

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/Laisky/zap"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
)

// HTTPClient is the default outbound client used for relay requests.
var HTTPClient *http.Client

// ImpatientHTTPClient is a short-timeout client for health checks and token exchanges.
var ImpatientHTTPClient *http.Client

// Init builds the shared HTTP clients with proxy and timeout settings derived
// from configuration. The dialer timeout bounds connect/TLS setup; RELAY_TIMEOUT
// (when non-zero) bounds whole upstream calls.
func Init() {
	createTransport := func(proxyURL *url.URL) *http.Transport {
		dialer := &net.Dialer{
			Timeout:   time.Duration(config.ConnectTimeout) * time.Second,
			KeepAlive: 30 * time.Second,
		}

		transport := &http.Transport{
			DialContext: dialer.DialContext,
			// Disable HTTP/2; some upstream proxies mishandle h2 streams.
			TLSNextProto: make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
		}
		if proxyURL != nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		return transport
	}

	var transport http.RoundTripper
	if config.RelayProxy != "" {
		logger.Logger.Info("using api relay proxy", zap.String("proxy", config.RelayProxy))
		proxyURL, err := url.Parse(config.RelayProxy)
		if err != nil {
			logger.Logger.Fatal(fmt.Sprintf("RELAY_PROXY set but invalid: %s", config.RelayProxy))
		}
		transport = createTransport(proxyURL)
	} else {
		transport = createTransport(nil)
	}

	if config.RelayTimeout == 0 {
		HTTPClient = &http.Client{
			Transport: transport,
		}
	} else {
		HTTPClient = &http.Client{
			Timeout:   time.Duration(config.RelayTimeout) * time.Second,
			Transport: transport,
		}
	}

	ImpatientHTTPClient = &http.Client{
		Timeout:   5 * time.Second,
		Transport: transport,
	}
}
