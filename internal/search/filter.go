package search

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/John-Robertt/ifdb/internal/domain"
)

// Item 是搜索 API 返回的一条原始结果（只关心 title/link）。
type Item struct {
	Title string
	Link  string
}

// Filter 只保留 link 属于 site（或其子域名）的条目，保持输入顺序。
// 空输入返回空结果，不报错。
func Filter(items []Item, site string) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(items))
	for _, it := range items {
		if !InDomain(it.Link, site) {
			continue
		}
		out = append(out, domain.SearchResult{
			Title: strings.TrimSpace(it.Title),
			URL:   strings.TrimSpace(it.Link),
		})
	}
	return out
}

// InDomain 判断 link 的 host 是否等于 site 或是 site 的子域名。
//
// 约束：按 URL 结构比较 host，不做子串匹配：
// - https://example.org.evil.com/ 不属于 example.org
// - https://notexample.org/ 不属于 example.org
// 比较忽略大小写、端口与末尾的 '.'；只接受 http/https。
func InDomain(link, site string) bool {
	site = normHost(site)
	if site == "" {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := normHost(u.Hostname())
	if host == "" {
		return false
	}
	return host == site || strings.HasSuffix(host, "."+site)
}

// ValidateDomain 检查配置的目标站点是否可用于过滤：
// 必须是一个可注册域名（或其子域名），不能是公共后缀本身（例如 "org"、"co.uk"），
// 否则过滤会退化为“全部放行”。IP 地址原样接受（便于本地联调）。
func ValidateDomain(site string) (string, error) {
	h := normHost(site)
	if h == "" {
		return "", fmt.Errorf("domain 不能为空")
	}
	if strings.ContainsAny(h, "/:?#@ ") {
		return "", fmt.Errorf("domain 只能是主机名，实际是 %q", site)
	}
	if net.ParseIP(h) != nil || h == "localhost" {
		return h, nil
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(h); err != nil {
		return "", fmt.Errorf("domain 不是可注册域名：%q：%w", site, err)
	}
	return h, nil
}

func normHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.TrimSuffix(h, ".")
}
