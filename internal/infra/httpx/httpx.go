package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent 是 fanedit.org 放行的 Kodi 客户端标识。
	DefaultUserAgent = "Kodi (https://kodi.tv)"
)

// Transport 把“客户端标识 + 代理 + keep-alive 策略”固化为统一策略。
//
// 约束：不做重试。一次调用只发一次请求，失败直接交给上层报告。
type Transport struct {
	Base *http.Transport

	// UserAgent 在请求未显式设置 User-Agent 时写入。
	UserAgent string

	// DisableKeepAlives 决定是否对 Request 设置 Close=true。
	// 真正禁用 keep-alive 依赖 Base.DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// Clone 会复制 Header，避免在 RoundTripper 内部“污染”调用方的 request。
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
		r.Header.Set("User-Agent", t.UserAgent)
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

// Options 描述一个 client 的网络策略；零值即默认策略。
type Options struct {
	UserAgent string
	ProxyURL  string
	Timeout   time.Duration
}

// NewClient 构造搜索 API 与详情页共用的 HTTP client。
//
// 规则：
// - UserAgent 为空时使用 DefaultUserAgent
// - ProxyURL 非空：必须走代理，且禁用 keep-alive
// - Timeout 是单次调用的总超时；超时视为终止性失败
func NewClient(opts Options) (*http.Client, error) {
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	}

	disableKeepAlives := false
	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	return &http.Client{
		Transport: &Transport{
			Base:              base,
			UserAgent:         ua,
			DisableKeepAlives: disableKeepAlives,
		},
		Timeout: timeout,
	}, nil
}
