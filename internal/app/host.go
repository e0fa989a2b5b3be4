package app

import "github.com/John-Robertt/ifdb/internal/domain"

// Host 是媒体中心一侧的回调面；Runner 只通过它交付结果。
//
// 约束：
// - 每次调用 EndOfDirectory 恰好一次，且是最后一个回调（错误/panic 路径也一样）
// - Notify 只用于用户可见的错误提示，不承载结果
// - 实现不需要并发安全：一次调用是单线程、同步的
type Host interface {
	AddResult(r domain.SearchResult)
	AddDetails(m domain.MovieMeta)
	Notify(title, msg string)
	EndOfDirectory(succeeded bool)
}
