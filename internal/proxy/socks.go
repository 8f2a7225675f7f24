// Package proxy builds the HTTP client used for every outbound API call.
package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/proxy"
)

// NewHTTPClient returns a client that dials through the SOCKS5 proxy at
// addr, or a plain client when addr is empty. addr is either host:port or a
// socks5:// URL with optional credentials.
func NewHTTPClient(addr string) (*http.Client, error) {
	if addr == "" {
		return &http.Client{}, nil
	}
	return NewSocksClient(addr)
}

// NewSocksClient returns a client whose connections go through a SOCKS5 proxy.
func NewSocksClient(addr string) (*http.Client, error) {
	dialer, err := socksDialer(addr)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, address)
		}
		return dialer.Dial(network, address)
	}

	return &http.Client{Transport: transport}, nil
}

func socksDialer(addr string) (proxy.Dialer, error) {
	if !strings.Contains(addr, "://") {
		d, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		return d, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy address: %w", err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	return d, nil
}
