package nfo

import (
	"bytes"
	"encoding/xml"
	"testing"

	"github.com/John-Robertt/ifdb/internal/domain"
)

type movieOut struct {
	Title   string `xml:"title"`
	Plot    string `xml:"plot"`
	Tagline string `xml:"tagline"`
	Year    int    `xml:"year"`
	Ratings struct {
		Rating []struct {
			Name    string `xml:"name,attr"`
			Max     int    `xml:"max,attr"`
			Default bool   `xml:"default,attr"`
			Value   string `xml:"value"`
		} `xml:"rating"`
	} `xml:"ratings"`
	Thumb struct {
		Aspect string `xml:"aspect,attr"`
		URL    string `xml:",chardata"`
	} `xml:"thumb"`
	Genres    []string `xml:"genre"`
	Directors []string `xml:"director"`
	Votes     string   `xml:"votes"`
	Website   string   `xml:"website"`
}

func decode(t *testing.T, b []byte) movieOut {
	t.Helper()
	var out movieOut
	if err := xml.Unmarshal(b, &out); err != nil {
		t.Fatalf("xml.Unmarshal 失败：%v", err)
	}
	return out
}

func TestEncode_FullRecord(t *testing.T) {
	rating, votes := 8.7, 23
	meta := domain.MovieMeta{
		Title:        "Mr White Part II: Phoenix",
		Plot:         "The second chapter rebuilds the heist storyline & trims the subplots.",
		Tagline:      "Every fire leaves ashes.",
		Year:         2021,
		Genres:       []string{"Action", "Thriller", "Action", " "},
		Contributors: []string{"Ascetic", "Bohemian"},
		Rating:       &rating,
		Votes:        &votes,
		PosterURL:    "https://fanedit.org/media/reviews/photos/original/ab/cd/mr-white-part-ii.jpg",
		Website:      "https://fanedit.org/mr-white-part-ii-phoenix/",
	}

	b, err := Encode(meta)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !bytes.HasPrefix(b, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>`)) {
		t.Fatalf("缺少 XML 头：%q", b[:40])
	}

	out := decode(t, b)
	if out.Title != meta.Title || out.Plot != meta.Plot || out.Tagline != meta.Tagline || out.Year != 2021 {
		t.Fatalf("基础字段不一致：%+v", out)
	}
	if len(out.Ratings.Rating) != 1 {
		t.Fatalf("期望一条 rating，实际 %d", len(out.Ratings.Rating))
	}
	r := out.Ratings.Rating[0]
	if r.Name != RatingSource || r.Max != 10 || !r.Default || r.Value != "8.7" {
		t.Fatalf("rating 不一致：%+v", r)
	}
	if out.Thumb.Aspect != "poster" || out.Thumb.URL != meta.PosterURL {
		t.Fatalf("thumb 不一致：%+v", out.Thumb)
	}
	if len(out.Genres) != 2 || out.Genres[0] != "Action" || out.Genres[1] != "Thriller" {
		t.Fatalf("genre 未按输入顺序去重：%v", out.Genres)
	}
	if len(out.Directors) != 2 || out.Directors[0] != "Ascetic" || out.Directors[1] != "Bohemian" {
		t.Fatalf("director 不一致：%v", out.Directors)
	}
	if bytes.Contains(b, []byte("<votes>")) || out.Votes != "" {
		t.Fatalf("votes 不应输出")
	}
	if out.Website != meta.Website {
		t.Fatalf("website 不一致：%q", out.Website)
	}
}

func TestEncode_AbsentFieldsOmitted(t *testing.T) {
	b, err := Encode(domain.MovieMeta{Plot: "Only a plot."})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	for _, tag := range []string{"<year>", "<ratings>", "<thumb", "<genre>", "<director>", "<tagline>", "<website>"} {
		if bytes.Contains(b, []byte(tag)) {
			t.Fatalf("缺失字段不应输出 %s：\n%s", tag, b)
		}
	}
	if !bytes.Contains(b, []byte("<title></title>")) {
		t.Fatalf("title 缺失时仍应输出空元素：\n%s", b)
	}
}
