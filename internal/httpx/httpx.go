package httpx

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

const DefaultUserAgent = "statuscheck/0.1"

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultTimeout        = 15 * time.Second
)

// Doer lets us accept *http.Client or a test double.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	ConnectTimeout time.Duration
	Timeout        time.Duration

	// ProxyURL is an optional socks5:// or http(s):// proxy used for every request.
	ProxyURL string
}

func NewClient(cfg ClientConfig) (*http.Client, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, errors.Wrap(err, "parse proxy url")
		}

		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		default:
			pd, err := proxy.FromURL(u, dialer)
			if err != nil {
				return nil, errors.Wrap(err, "create proxy dialer")
			}

			transport.Proxy = nil
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := pd.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return pd.Dial(network, addr)
			}
		}
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}, nil
}

// NewRequest builds a request carrying a copy of the default header set.
func NewRequest(ctx context.Context, method, rawURL string, body io.Reader, header http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// JoinURL appends code to base. Bases carrying a query string get the code
// query-escaped at the end; path bases get exactly one slash between them.
// The slash is inserted even when the base ends mid-segment, so a prefix base
// such as "https://shop.example/gift/GC-" joined with "123" yields
// "https://shop.example/gift/GC-/123", not ".../GC-123".
func JoinURL(base, code string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "invalid base url %q", base)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Errorf("invalid base url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return "", errors.Errorf("invalid base url %q: missing host", base)
	}
	if code == "" {
		return "", errors.New("empty code")
	}

	var joined string
	if strings.Contains(base, "?") {
		joined = base + url.QueryEscape(code)
	} else {
		joined = strings.TrimRight(base, "/") + "/" + url.PathEscape(strings.TrimLeft(code, "/"))
	}

	out, err := url.Parse(joined)
	if err != nil {
		return "", errors.Wrapf(err, "invalid url for code %q", code)
	}
	if out.Host != u.Host {
		return "", errors.Errorf("code %q changes target host of %q", code, base)
	}
	return joined, nil
}
