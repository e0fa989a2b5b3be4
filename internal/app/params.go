package app

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/ifdb/internal/domain"
)

// Params 是宿主传入的一次调用参数（?action=...&title=...&year=...&url=...）。
type Params struct {
	Action string
	Title  string
	Year   string
	URL    string
}

// ParseParams 宽松解析宿主的查询串，永不失败：
// - 开头的 '?' 可有可无，未知键忽略
// - 空值的键忽略；同一键出现多次时后者生效
// - 非法的 %-转义原样保留（"100%" 仍是 "100%"）
func ParseParams(raw string) Params {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	vals := map[string]string{}
	for _, pair := range strings.Split(raw, "&") {
		k, v, _ := strings.Cut(pair, "=")
		k, v = unescapeLenient(k), unescapeLenient(v)
		if k == "" || v == "" {
			continue
		}
		vals[k] = v
	}
	return Params{
		Action: vals["action"],
		Title:  vals["title"],
		Year:   vals["year"],
		URL:    vals["url"],
	}
}

// unescapeLenient 按查询串规则解码（'+' 为空格），遇到非法转义时逐字节保留原文。
func unescapeLenient(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			n, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
			b.WriteByte(byte(n))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// DetailsRef 返回一个 find 结果对应的 getdetails 调用参数；宿主在用户选中后原样回传。
func DetailsRef(pageURL string) string {
	v := url.Values{}
	v.Set("action", domain.ActionGetDetails)
	v.Set("url", pageURL)
	return "?" + v.Encode()
}

// ParamError 表示调用参数本身不合法（在任何网络请求之前拒绝）。
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("参数 %s 不合法：%v", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }
