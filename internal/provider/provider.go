package provider

import (
	"context"
	"net/http"

	"github.com/John-Robertt/ifdb/internal/domain"
)

// PageProvider 把“站点变化”限制在 provider 包内部；pipeline 只依赖统一接口与稳定的 MovieMeta。
//
// 约束：
// - Fetch 不做缓存、不做重试（网络策略由 httpx 统一实现）
// - Parse 必须是纯函数：相同输入 => 相同输出；不返回错误，缺失字段直接留空
// - pageURL 必须是详情页（写入 MovieMeta.Website 作为来源标记）
type PageProvider interface {
	Name() string
	Fetch(ctx context.Context, pageURL string, c *http.Client) (html []byte, err error)
	Parse(html []byte, pageURL string) domain.MovieMeta
}
