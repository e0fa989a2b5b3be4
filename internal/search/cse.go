package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/John-Robertt/ifdb/internal/provider"
)

// Options 描述一个 Programmable Search（Custom Search JSON API）client。
type Options struct {
	APIKey         string
	SearchEngineID string
	// Endpoint 覆盖 API 根地址（例如测试桩）；为空使用库默认值。
	Endpoint   string
	HTTPClient *http.Client
}

// Client 对 Custom Search JSON API 发起一次 cse.list 调用。
//
// 约束：
// - key/cx/q 一律交给库做结构化编码，不手工拼接 URL
// - 只请求 items(title,link)；不分页、不重试
type Client struct {
	svc    *customsearch.Service
	apiKey string
	cx     string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.HTTPClient == nil {
		return nil, errors.New("http client 不能为空")
	}
	if strings.TrimSpace(opts.APIKey) == "" || strings.TrimSpace(opts.SearchEngineID) == "" {
		return nil, errors.New("api_key 与 search_engine_id 都不能为空")
	}

	// WithHTTPClient 会让库跳过凭据探测；key 通过 QueryParameter 在每次调用时附加。
	copts := []option.ClientOption{option.WithHTTPClient(opts.HTTPClient)}
	if ep := strings.TrimSpace(opts.Endpoint); ep != "" {
		if !strings.HasSuffix(ep, "/") {
			ep += "/"
		}
		copts = append(copts, option.WithEndpoint(ep))
	}

	svc, err := customsearch.NewService(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("初始化 customsearch 失败：%w", err)
	}
	return &Client{
		svc:    svc,
		apiKey: strings.TrimSpace(opts.APIKey),
		cx:     strings.TrimSpace(opts.SearchEngineID),
	}, nil
}

// Search 返回原始条目（未做域名过滤）。
// 响应里没有 items 视为零结果而不是错误。
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	res, err := c.svc.Cse.List().
		Cx(c.cx).
		Q(query).
		Fields("items(title,link)").
		Context(ctx).
		Do(googleapi.QueryParameter("key", c.apiKey))
	if err != nil {
		return nil, classify(c.svc.BasePath, err)
	}

	items := make([]Item, 0, len(res.Items))
	for _, r := range res.Items {
		if r == nil {
			continue
		}
		items = append(items, Item{Title: r.Title, Link: r.Link})
	}
	return items, nil
}

// Query 组合搜索词：title，或 title + " " + year。
func Query(title, year string) string {
	title = strings.TrimSpace(title)
	year = strings.TrimSpace(year)
	if year == "" {
		return title
	}
	return title + " " + year
}

// ParseError 表示搜索 API 的响应体不是期望的 JSON。
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("搜索结果不是合法 JSON：%v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// classify 把库返回的错误归一为 provider.HTTPStatusError / ParseError；其余（网络、超时）原样返回。
func classify(endpoint string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := strings.TrimSpace(gerr.Message)
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return &provider.HTTPStatusError{URL: endpoint, StatusCode: gerr.Code, Message: msg}
	}

	var (
		se *json.SyntaxError
		te *json.UnmarshalTypeError
	)
	if errors.As(err, &se) || errors.As(err, &te) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ParseError{Err: err}
	}
	return err
}
