package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/John-Robertt/ifdb/internal/app"
	"github.com/John-Robertt/ifdb/internal/domain"
	"github.com/John-Robertt/ifdb/internal/nfo"
)

const (
	formatJSON = "json"
	formatNFO  = "nfo"
)

type resultLine struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	// Ref 是宿主在用户选中后回传的 getdetails 参数。
	Ref string `json:"ref"`
}

type detailsLine struct {
	Type      string           `json:"type"`
	MediaType string           `json:"media_type"`
	Meta      domain.MovieMeta `json:"meta"`
}

type endLine struct {
	Type      string `json:"type"`
	Succeeded bool   `json:"succeeded"`
}

// lineHost 把 app.Host 的回调渲染为 stdout 上的行协议。
//
// 约束：
// - json：每个回调一行 JSON，最后一行是 {"type":"end",...}
// - nfo：stdout 只输出详情记录的 NFO（XML），不输出 JSON 行，也没有 end 行；
//   只供 getdetails 子命令使用，不是宿主协议，结果以退出码为准
// - 提示只写 stderr，stdout 保持可被机器解析
// - 写出失败只记录第一个错误，由调用方决定退出码
type lineHost struct {
	out    io.Writer
	errw   io.Writer
	format string
	enc    *json.Encoder
	err    error
}

func newLineHost(out, errw io.Writer, format string) *lineHost {
	return &lineHost{out: out, errw: errw, format: format, enc: json.NewEncoder(out)}
}

func (h *lineHost) AddResult(r domain.SearchResult) {
	h.emit(resultLine{Type: "result", Title: r.Title, URL: r.URL, Ref: app.DetailsRef(r.URL)})
}

func (h *lineHost) AddDetails(m domain.MovieMeta) {
	if h.format == formatNFO {
		b, err := nfo.Encode(m)
		if err != nil {
			h.setErr(err)
			return
		}
		_, err = h.out.Write(b)
		h.setErr(err)
		return
	}
	h.emit(detailsLine{Type: "details", MediaType: domain.MediaTypeMovie, Meta: m})
}

func (h *lineHost) Notify(title, msg string) {
	_, err := fmt.Fprintf(h.errw, "%s: %s\n", title, msg)
	h.setErr(err)
}

func (h *lineHost) EndOfDirectory(succeeded bool) {
	if h.format == formatNFO {
		return
	}
	h.emit(endLine{Type: "end", Succeeded: succeeded})
}

func (h *lineHost) emit(v any) {
	if h.format == formatNFO {
		return
	}
	h.setErr(h.enc.Encode(v))
}

func (h *lineHost) setErr(err error) {
	if err != nil && h.err == nil {
		h.err = err
	}
}
