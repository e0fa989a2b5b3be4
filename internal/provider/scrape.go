package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/John-Robertt/ifdb/internal/domain"
)

// FetchParse 抓取一个详情页并解析为 MovieMeta。
//
// 返回值：
// - meta：解析结果（可能所有字段都缺失，由上层决定是否算 NotFound）
// - html：抓取到的原始 HTML（便于上层记录大小/调试）
//
// 抓取失败返回 *Error{Stage:"fetch"}；Parse 本身不会失败。
func FetchParse(ctx context.Context, p PageProvider, pageURL string, c *http.Client) (meta domain.MovieMeta, html []byte, err error) {
	if p == nil {
		return domain.MovieMeta{}, nil, fmt.Errorf("provider 不能为空")
	}
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return domain.MovieMeta{}, nil, fmt.Errorf("pageURL 不能为空")
	}

	name := strings.ToLower(strings.TrimSpace(p.Name()))
	h, ferr := p.Fetch(ctx, pageURL, c)
	if ferr != nil {
		return domain.MovieMeta{}, nil, &Error{Provider: name, Stage: StageFetch, Err: ferr}
	}

	m := p.Parse(h, pageURL)
	m.Website = pageURL
	return m, h, nil
}

// StageFetch 是目前唯一会失败的阶段（Parse 不返回错误）。
const StageFetch = "fetch"

// Error 是 provider 阶段的可追溯错误。
// 上层据此把失败归类为 fetch_failed。
type Error struct {
	Provider string // provider name（小写）
	Stage    string // 目前只有 "fetch"
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider=%s stage=%s: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
