package fanedit

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/ifdb/internal/domain"
)

// Assemble 对同一份 HTML 执行全部字段抽取，把找到的字段合并成一条 MovieMeta。
//
// 约束：
// - 永远返回记录（可能所有字段都缺失），不返回错误
// - 单个字段缺失不影响其它字段
// - 是否把“全空记录”视为 NotFound 由调用方决定（见 MovieMeta.Empty）
func Assemble(html []byte, pageURL string) domain.MovieMeta {
	meta := domain.MovieMeta{Website: pageURL}

	// 源站内容按 UTF-8 解码；非法字节替换掉，避免把半个字符写进记录。
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bytes.ToValidUTF8(html, []byte("�"))))
	if err != nil {
		return meta
	}

	if v, ok := title(doc); ok {
		meta.Title = v
	}
	if v, ok := plot(doc); ok {
		meta.Plot = v
	}
	if v, ok := year(doc); ok {
		meta.Year = v
	}
	if v, ok := genres(doc); ok {
		meta.Genres = v
	}
	if v, ok := contributors(doc); ok {
		meta.Contributors = v
	}
	if v, ok := rating(doc); ok {
		meta.Rating = &v
	}
	if v, ok := votes(doc); ok {
		meta.Votes = &v
	}
	if v, ok := tagline(doc); ok {
		meta.Tagline = v
	}
	if v, ok := poster(doc); ok {
		meta.PosterURL = v
	}
	return meta
}
