package domain

// MediaTypeMovie 是交给宿主的记录类型（fanedit 只有电影）。
const MediaTypeMovie = "movie"

// MovieMeta 是从 fanedit 详情页解析得到的结构化元数据。
//
// 约束：
// - 每个字段都可以独立缺失；缺失一个字段不能影响其它字段的输出
// - 字符串 "" / Year 0 / 指针 nil 表示缺失
// - Genres/Contributors：nil 表示页面没有该区块；非 nil 的空切片表示区块存在但没有条目
// - Website 是本记录对应的详情页 URL（来源标记，不是抽取字段）
type MovieMeta struct {
	Title   string `json:"title,omitempty"`
	Plot    string `json:"plot,omitempty"`
	Tagline string `json:"tagline,omitempty"`
	Year    int    `json:"year,omitempty"`

	Genres       []string `json:"genres"`
	Contributors []string `json:"contributors"`

	Rating *float64 `json:"rating,omitempty"`
	// Votes 会被抽取，但宿主记录没有承载它的字段，因此不参与 JSON 输出。
	Votes *int `json:"-"`

	PosterURL string `json:"poster_url,omitempty"`
	Website   string `json:"website"`
}

// Empty 判断是否所有抽取字段都缺失（Website 与不输出的 Votes 不计入）。
func (m MovieMeta) Empty() bool {
	return m.Title == "" &&
		m.Plot == "" &&
		m.Tagline == "" &&
		m.Year == 0 &&
		m.Genres == nil &&
		m.Contributors == nil &&
		m.Rating == nil &&
		m.PosterURL == ""
}
