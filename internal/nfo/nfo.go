package nfo

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/John-Robertt/ifdb/internal/domain"
)

// RatingSource 是 <ratings> 中评分来源的名称。
const RatingSource = "ifdb"

type movie struct {
	XMLName xml.Name `xml:"movie"`

	Title   string `xml:"title"`
	Plot    string `xml:"plot,omitempty"`
	Tagline string `xml:"tagline,omitempty"`
	Year    int    `xml:"year,omitempty"`

	Ratings *ratings `xml:"ratings,omitempty"`
	Thumb   *thumb   `xml:"thumb,omitempty"`

	Genres    []string `xml:"genre,omitempty"`
	Directors []string `xml:"director,omitempty"`

	Website string `xml:"website,omitempty"`
}

type ratings struct {
	Rating []rating `xml:"rating"`
}

type rating struct {
	Name    string `xml:"name,attr"`
	Max     int    `xml:"max,attr"`
	Default bool   `xml:"default,attr"`
	Value   string `xml:"value"`
}

type thumb struct {
	Aspect string `xml:"aspect,attr"`
	URL    string `xml:",chardata"`
}

// Encode 把 MovieMeta 转成 Kodi 可读取的 <movie> NFO（XML）。
//
// 规则：
// - 缺失字段不输出对应元素；title 例外（Kodi 要求存在，缺失时输出空元素）
// - contributors 映射为 director（fanedit 的剪辑者即该版本的“导演”）
// - genre/director 去空白、去重、保持输入顺序
// - votes 不输出（与交给宿主的记录保持一致）
func Encode(meta domain.MovieMeta) ([]byte, error) {
	m := movie{
		Title:   strings.TrimSpace(meta.Title),
		Plot:    strings.TrimSpace(meta.Plot),
		Tagline: strings.TrimSpace(meta.Tagline),
		Year:    meta.Year,

		Genres:    normList(meta.Genres),
		Directors: normList(meta.Contributors),

		Website: strings.TrimSpace(meta.Website),
	}

	if meta.Rating != nil {
		m.Ratings = &ratings{Rating: []rating{{
			Name:    RatingSource,
			Max:     10,
			Default: true,
			Value:   strconv.FormatFloat(*meta.Rating, 'f', -1, 64),
		}}}
	}
	if p := strings.TrimSpace(meta.PosterURL); p != "" {
		m.Thumb = &thumb{Aspect: "poster", URL: p}
	}

	b, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	// 约定：输出带 standalone="yes" 的 XML 头，便于与常见刮削器产物兼容。
	const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"
	out := append([]byte(header), b...)
	return append(out, '\n'), nil
}

func normList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
