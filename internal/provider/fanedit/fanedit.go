package fanedit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/John-Robertt/ifdb/internal/domain"
	providerx "github.com/John-Robertt/ifdb/internal/provider"
)

// maxPageBytes 限制单个详情页的读取量（正常页面远小于该值）。
const maxPageBytes = 8 << 20

// Provider 实现 fanedit.org 详情页的抓取与 HTML 解析。
//
// 约束：
// - 详情页 URL 来自 find 阶段（已通过域名过滤），这里不再拼接/改写
// - Fetch 不做缓存/重试（由上层统一控制）
// - Parse 必须是纯函数（依赖输入 html + pageURL）
type Provider struct{}

var _ providerx.PageProvider = Provider{}

func (Provider) Name() string { return "fanedit" }

// Fetch 发起一次 GET；User-Agent 由 httpx.Transport 统一写入。
func (Provider) Fetch(ctx context.Context, pageURL string, c *http.Client) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	if pageURL == "" {
		return nil, errors.New("pageURL 不能为空")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, err
	}

	// 先识别拦截页，再看状态码：拦截页对用户来说需要不同的提示。
	if reason, ok := detectChallenge(resp, body); ok {
		return nil, &providerx.BlockedError{URL: pageURL, Reason: reason}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providerx.HTTPStatusError{URL: pageURL, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}
	return body, nil
}

// Parse 把 fanedit 详情页 HTML 解析为 MovieMeta。
func (Provider) Parse(html []byte, pageURL string) domain.MovieMeta {
	return Assemble(html, pageURL)
}

var challengeMarkers = [][]byte{
	[]byte("cf-browser-verification"),
	[]byte("cf-turnstile"),
	[]byte("challenge-platform"),
	[]byte("Attention Required! | Cloudflare"),
	[]byte("Just a moment..."),
}

// detectChallenge 识别 Cloudflare 拦截页：
// - 响应头 cf-mitigated: challenge（任何状态码）
// - 403/503 且 body 带 challenge 特征
func detectChallenge(resp *http.Response, body []byte) (string, bool) {
	if strings.EqualFold(resp.Header.Get("Cf-Mitigated"), "challenge") {
		return "cloudflare-challenge", true
	}
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusServiceUnavailable {
		return "", false
	}
	for _, m := range challengeMarkers {
		if bytes.Contains(body, m) {
			return "cloudflare-challenge", true
		}
	}
	return "", false
}
