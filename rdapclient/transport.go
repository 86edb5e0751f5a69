package rdapclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultUserAgent = "DomainChecker/1.0 (+rdap)"
	// RDAP 域名记录通常只有几十 KB
	maxBodyBytes = 4 << 20
)

// Response 一次 RDAP 请求的原始结果。
type Response struct {
	StatusCode int
	Body       []byte
}

// Session 在一个批次内共享的连接池。Fetch 返回 error 即表示传输层失败。
type Session interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
	Close()
}

// Transport 为每个批次打开一个新的 Session。
type Transport interface {
	Open() Session
}

type HTTPTransport struct {
	Timeout   time.Duration
	MaxConns  int
	UserAgent string
}

func NewHTTPTransport(timeout time.Duration, maxConns int) *HTTPTransport {
	return &HTTPTransport{Timeout: timeout, MaxConns: maxConns, UserAgent: defaultUserAgent}
}

func (t *HTTPTransport) Open() Session {
	perHost := t.MaxConns
	if perHost <= 0 {
		perHost = 2
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   t.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	ua := t.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &httpSession{
		// 默认策略跟随重定向（最多 10 次），rdap.org 会 302 到注册局服务器
		client:    &http.Client{Timeout: t.Timeout, Transport: tr},
		transport: tr,
		userAgent: ua,
	}
}

type httpSession struct {
	client    *http.Client
	transport *http.Transport
	userAgent string
}

func (s *httpSession) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", rawURL, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (s *httpSession) Close() {
	s.transport.CloseIdleConnections()
}
