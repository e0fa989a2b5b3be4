package provider

import (
	"fmt"
	"strings"
)

// HTTPStatusError 表示对端返回了非 2xx 的 HTTP 状态码。
// 详情页抓取与搜索 API 共用该错误，上层统一归类为 fetch_failed。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
	// Message 是对端给出的原因（例如搜索 API 的 error.message），可为空。
	Message string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	s := fmt.Sprintf("HTTP %d", e.StatusCode)
	if loc := strings.TrimSpace(e.Location); loc != "" {
		s += " location=" + loc
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		s += ": " + msg
	}
	return s
}

// BlockedError 表示请求被站点引导到了“验证/拦截”页面（例如 Cloudflare challenge）。
// 产品约束：不尝试绕过，直接视为 fetch_failed，并把原因告诉用户。
type BlockedError struct {
	URL    string
	Reason string // 例如 "cloudflare-challenge"
}

func (e *BlockedError) Error() string {
	if e == nil {
		return "blocked"
	}
	if strings.TrimSpace(e.Reason) == "" {
		return "blocked"
	}
	return "blocked: " + strings.TrimSpace(e.Reason)
}
