package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/dnscache"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultDNSRefresh = 5 * time.Minute
	defaultKeepAlive  = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	Timeout    time.Duration
	DNSCache   bool
	DNSRefresh time.Duration
}

// Client is an *http.Client plus the background work owned by it.
type Client struct {
	*http.Client

	resolver *dnscache.Resolver
	stop     chan struct{}
	stopOnce sync.Once
}

// New returns a client. Close it to stop the DNS refresh loop.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DNSRefresh <= 0 {
		cfg.DNSRefresh = DefaultDNSRefresh
	}

	trans := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{stop: make(chan struct{})}
	if cfg.DNSCache {
		c.resolver = &dnscache.Resolver{}
		useDNSCacheDialer(trans, c.resolver, cfg.Timeout, defaultKeepAlive)
		go c.refresh(cfg.DNSRefresh)
	}
	c.Client = &http.Client{Transport: trans, Timeout: cfg.Timeout}
	return c
}

func (c *Client) refresh(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.resolver.Refresh(true)
		case <-c.stop:
			return
		}
	}
}

// Close stops the refresh loop and drops idle connections.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.CloseIdleConnections()
	})
}

var errNoAddrs = errors.New("dns: no addresses")

func useDNSCacheDialer(trans *http.Transport, r *dnscache.Resolver, timeout, keepAlive time.Duration) {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: keepAlive,
	}

	trans.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ips, err := r.LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, errNoAddrs
		}

		var conn net.Conn
		for _, ip := range ips {
			conn, err = dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
		}
		return nil, err
	}
}
