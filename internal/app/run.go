package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/ifdb/internal/config"
	"github.com/John-Robertt/ifdb/internal/domain"
	"github.com/John-Robertt/ifdb/internal/infra/httpx"
	"github.com/John-Robertt/ifdb/internal/provider"
	"github.com/John-Robertt/ifdb/internal/provider/fanedit"
	"github.com/John-Robertt/ifdb/internal/search"
)

// NotifyTitle 是所有错误提示共用的标题。
const NotifyTitle = "IFDB Scraper Error"

// Searcher 是搜索 API 协作者；默认实现是 search.Client。
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Item, error)
}

// Runner 执行宿主的一次调用（find / getdetails / NfoUrl）。
//
// 约束：
// - 无状态、单线程：每次调用最多一次对外请求，不缓存、不重试
// - Search/Pages/Client 为空时按 Cfg 构造默认实现（测试可注入替身）
// - stdout 由 Host 独占；Runner 自己只写 Logger
type Runner struct {
	Cfg    config.EffectiveConfig
	Host   Host
	Logger *slog.Logger

	Search Searcher
	Pages  provider.PageProvider
	Client *http.Client

	Now   func() time.Time
	NewID func() string
}

// New 按最终配置装配一个 Runner（fanedit provider + httpx client）。
func New(cfg config.EffectiveConfig, host Host, logger *slog.Logger) (*Runner, error) {
	c, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		Cfg:    cfg,
		Host:   host,
		Logger: logger,
		Pages:  fanedit.Provider{},
		Client: c,
	}, nil
}

// Find 搜索候选条目，并逐条交给 Host.AddResult。
func (r *Runner) Find(ctx context.Context, title, year string) domain.Outcome {
	return r.Dispatch(ctx, Params{Action: domain.ActionFind, Title: title, Year: year})
}

// GetDetails 抓取并解析一个详情页，把唯一一条记录交给 Host.AddDetails。
func (r *Runner) GetDetails(ctx context.Context, pageURL string) domain.Outcome {
	return r.Dispatch(ctx, Params{Action: domain.ActionGetDetails, URL: pageURL})
}

// Dispatch 按 action 路由一次调用，返回对外稳定的 Outcome。
// 无论成功、失败还是 panic，Host.EndOfDirectory 都恰好调用一次。
func (r *Runner) Dispatch(ctx context.Context, p Params) (out domain.Outcome) {
	out = domain.Outcome{
		InvocationID: r.newID(),
		Action:       p.Action,
		StartedAt:    r.now(),
	}
	log := r.logger().With("invocation", out.InvocationID, "action", p.Action)

	defer func() {
		if v := recover(); v != nil {
			log.Error("调用异常终止", "panic", v)
			out.Results, out.Meta = nil, nil
			r.fail(&out, domain.ErrCodeInternal, fmt.Errorf("内部错误：%v", v))
		}
		out.FinishedAt = r.now()
		out.Finalize()
		r.Host.EndOfDirectory(out.Succeeded())
		log.Info("调用结束",
			"status", out.Status,
			"error_code", out.ErrorCode,
			"results", len(out.Results),
			"dur", out.FinishedAt.Sub(out.StartedAt),
		)
	}()

	switch p.Action {
	case domain.ActionFind:
		res, err := r.find(ctx, log, p.Title, p.Year)
		if err != nil {
			log.Error("搜索失败", "err", err)
			r.fail(&out, classify(err), err)
			return out
		}
		out.Results = res
		if len(res) == 0 {
			out.Status = domain.StatusNotFound
		}

	case domain.ActionGetDetails:
		meta, err := r.getDetails(ctx, log, p.URL)
		if err != nil {
			log.Error("获取详情失败", "err", err)
			r.fail(&out, classify(err), err)
			return out
		}
		if meta == nil {
			out.Status = domain.StatusNotFound
			return out
		}
		out.Meta = meta

	case domain.ActionNfoURL:
		log.Info("NfoUrl 不做任何处理")

	default:
		log.Warn("未知 action", "raw", p.Action)
		out.Status = domain.StatusFailed
		out.ErrorCode = domain.ErrCodeUnknownAction
		out.ErrorMsg = fmt.Sprintf("未知 action：%q", p.Action)
	}
	return out
}

func (r *Runner) find(ctx context.Context, log *slog.Logger, title, year string) ([]domain.SearchResult, error) {
	if err := r.Cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, &ParamError{Param: "title", Err: errors.New("不能为空")}
	}

	s, err := r.searcher(ctx)
	if err != nil {
		return nil, err
	}

	q := search.Query(title, year)
	log.Info("搜索", "query", q, "domain", r.Cfg.Domain)
	items, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	res := search.Filter(items, r.Cfg.Domain)
	log.Debug("搜索完成", "items", len(items), "in_domain", len(res))
	for _, it := range res {
		r.Host.AddResult(it)
	}
	return res, nil
}

// getDetails 返回 nil meta 表示页面上没有任何可提取字段（NotFound）。
func (r *Runner) getDetails(ctx context.Context, log *slog.Logger, rawURL string) (*domain.MovieMeta, error) {
	pageURL, err := r.checkPageURL(rawURL)
	if err != nil {
		return nil, err
	}

	c, err := r.client()
	if err != nil {
		return nil, err
	}

	log.Info("抓取详情页", "url", pageURL)
	meta, html, err := provider.FetchParse(ctx, r.pages(), pageURL, c)
	if err != nil {
		return nil, err
	}
	log.Debug("详情页已解析",
		"bytes", len(html),
		"title", meta.Title,
		"year", meta.Year,
		"genres", len(meta.Genres),
		"contributors", len(meta.Contributors),
		"has_rating", meta.Rating != nil,
		"has_poster", meta.PosterURL != "",
	)
	if meta.Empty() {
		log.Info("详情页没有可提取的字段")
		return nil, nil
	}

	r.Host.AddDetails(meta)
	return &meta, nil
}

// checkPageURL 只接受配置域名内的绝对 http(s) URL；在任何网络请求之前拒绝其余输入。
func (r *Runner) checkPageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ParamError{Param: "url", Err: errors.New("不能为空")}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &ParamError{Param: "url", Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &ParamError{Param: "url", Err: fmt.Errorf("必须是绝对 http/https URL：%q", raw)}
	}
	if !search.InDomain(raw, r.Cfg.Domain) {
		return "", &ParamError{Param: "url", Err: fmt.Errorf("%q 不属于 %s", raw, r.Cfg.Domain)}
	}
	return raw, nil
}

func (r *Runner) fail(out *domain.Outcome, code string, err error) {
	out.Status = domain.StatusFailed
	out.ErrorCode = code
	out.ErrorMsg = err.Error()
	r.Host.Notify(NotifyTitle, notifyMessage(out.Action, code, err))
}

// classify 把错误归类为稳定的 error_code。
func classify(err error) string {
	if c := config.Code(err); c != "" {
		return c
	}
	var pe *ParamError
	if errors.As(err, &pe) {
		return domain.ErrCodeInvalidParam
	}
	var se *search.ParseError
	if errors.As(err, &se) {
		return domain.ErrCodeParseFailed
	}
	return domain.ErrCodeFetchFailed
}

// notifyMessage 生成给用户看的一句话；API 返回的原因（若有）原样带出。
func notifyMessage(action, code string, err error) string {
	if code == domain.ErrCodeConfigMissingCredentials {
		return "请先在配置中设置 API 凭据（api_key / search_engine_id）"
	}
	var he *provider.HTTPStatusError
	if action == domain.ActionFind && errors.As(err, &he) {
		return fmt.Sprintf("搜索请求失败：%s", he.Error())
	}
	switch action {
	case domain.ActionFind:
		return fmt.Sprintf("搜索失败：%v", err)
	case domain.ActionGetDetails:
		return fmt.Sprintf("获取详情失败：%v", err)
	default:
		return err.Error()
	}
}

func (r *Runner) searcher(ctx context.Context) (Searcher, error) {
	if r.Search != nil {
		return r.Search, nil
	}
	c, err := r.client()
	if err != nil {
		return nil, err
	}
	s, err := search.NewClient(ctx, search.Options{
		APIKey:         r.Cfg.APIKey,
		SearchEngineID: r.Cfg.SearchEngineID,
		Endpoint:       r.Cfg.SearchEndpoint,
		HTTPClient:     c,
	})
	if err != nil {
		return nil, err
	}
	r.Search = s
	return s, nil
}

func (r *Runner) client() (*http.Client, error) {
	if r.Client != nil {
		return r.Client, nil
	}
	c, err := newHTTPClient(r.Cfg)
	if err != nil {
		return nil, err
	}
	r.Client = c
	return c, nil
}

func newHTTPClient(cfg config.EffectiveConfig) (*http.Client, error) {
	c, err := httpx.NewClient(httpx.Options{
		UserAgent: cfg.UserAgent,
		ProxyURL:  cfg.ProxyURL,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Path: cfg.ConfigPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
	}
	return c, nil
}

func (r *Runner) pages() provider.PageProvider {
	if r.Pages != nil {
		return r.Pages
	}
	return fanedit.Provider{}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}
