package domain

// SearchResult 是 find 阶段交给宿主的一条候选。
// URL 必须属于目标站点（由 search.Filter 保证），宿主把它原样回传给 getdetails。
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
