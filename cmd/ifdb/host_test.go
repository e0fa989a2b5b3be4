package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/ifdb/internal/app"
	"github.com/John-Robertt/ifdb/internal/domain"
)

func TestLineHost_JSONLines(t *testing.T) {
	var out, errb bytes.Buffer
	h := newLineHost(&out, &errb, formatJSON)

	rating, votes := 7.5, 12
	h.AddResult(domain.SearchResult{Title: "Mr White Part II: Phoenix", URL: "https://fanedit.org/mr-white-part-ii-phoenix/"})
	h.AddDetails(domain.MovieMeta{Title: "Mr White Part II: Phoenix", Rating: &rating, Votes: &votes, Website: "https://fanedit.org/mr-white-part-ii-phoenix/"})
	h.Notify(app.NotifyTitle, "something odd")
	h.EndOfDirectory(true)

	if h.err != nil {
		t.Fatalf("不期望错误：%v", h.err)
	}

	dec := json.NewDecoder(&out)
	var r resultLine
	if err := dec.Decode(&r); err != nil {
		t.Fatalf("解码 result 失败：%v", err)
	}
	wantR := resultLine{
		Type:  "result",
		Title: "Mr White Part II: Phoenix",
		URL:   "https://fanedit.org/mr-white-part-ii-phoenix/",
		Ref:   app.DetailsRef("https://fanedit.org/mr-white-part-ii-phoenix/"),
	}
	if diff := cmp.Diff(wantR, r); diff != "" {
		t.Fatalf("result 不一致（-want +got）：\n%s", diff)
	}

	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		t.Fatalf("解码 details 失败：%v", err)
	}
	if string(raw["media_type"]) != `"movie"` {
		t.Fatalf("media_type 不一致：%s", raw["media_type"])
	}
	if bytes.Contains(raw["meta"], []byte("votes")) {
		t.Fatalf("votes 不应输出：%s", raw["meta"])
	}
	if !bytes.Contains(raw["meta"], []byte(`"rating":7.5`)) {
		t.Fatalf("rating 应输出：%s", raw["meta"])
	}

	var end endLine
	if err := dec.Decode(&end); err != nil {
		t.Fatalf("解码 end 失败：%v", err)
	}
	if end != (endLine{Type: "end", Succeeded: true}) {
		t.Fatalf("end 不一致：%+v", end)
	}

	if got := errb.String(); got != app.NotifyTitle+": something odd\n" {
		t.Fatalf("提示应只写 stderr：%q", got)
	}
}

func TestLineHost_NFOFormat(t *testing.T) {
	var out, errb bytes.Buffer
	h := newLineHost(&out, &errb, formatNFO)

	h.AddDetails(domain.MovieMeta{Title: "Mr White Part II: Phoenix", Year: 2021})
	h.EndOfDirectory(true)

	s := out.String()
	if !strings.HasPrefix(s, "<?xml") || strings.Contains(s, `"type"`) {
		t.Fatalf("nfo 格式下 stdout 只应包含 XML：%q", s)
	}
	if !strings.Contains(s, "<year>2021</year>") {
		t.Fatalf("NFO 缺少 year：%q", s)
	}
}
