package fanedit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// 每个抽取函数只负责一个字段。
//
// 约束：
// - 只读 doc，不修改；彼此之间没有共享状态，调用顺序无关
// - 找不到就返回 ok=false，不报错、不 panic
// - 定位依赖 JReviews 的字段行 class（jr<Field> jrFieldRow），中间允许任意嵌套与空白

var (
	yearRE   = regexp.MustCompile(`[0-9]{4}`)
	ratingRE = regexp.MustCompile(`Rating:\s*([0-9.]+)\s*/\s*10`)
	votesRE  = regexp.MustCompile(`^\(\s*([0-9]+)\s*votes?\s*\)$`)
)

const (
	rowSynopsis    = "jrBriefsynopsis"
	rowReleaseDate = "jrFaneditreleasedate"
	rowGenre       = "jrGenre"
	rowFaneditor   = "jrFaneditorname"

	taglineLabel = "Tagline:"
)

func fieldRow(doc *goquery.Document, row string) *goquery.Selection {
	return doc.Find("div." + row + ".jrFieldRow").First()
}

// title 取第一个 h1。
func title(doc *goquery.Document) (string, bool) {
	s := strings.TrimSpace(doc.Find("h1").First().Text())
	return s, s != ""
}

// plot 取 Brief synopsis 字段的值；Text() 天然去掉了内联标签。
func plot(doc *goquery.Document) (string, bool) {
	v := fieldRow(doc, rowSynopsis).Find("div.jrFieldValue").First()
	if v.Length() == 0 {
		return "", false
	}
	s := strings.TrimSpace(v.Text())
	return s, s != ""
}

// year 取 Release date 字段值里的第一段 4 位数字。
func year(doc *goquery.Document) (int, bool) {
	v := fieldRow(doc, rowReleaseDate).Find("div.jrFieldValue").First()
	if v.Length() == 0 {
		return 0, false
	}
	m := yearRE.FindString(v.Text())
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

func genres(doc *goquery.Document) ([]string, bool) {
	return anchorList(doc, rowGenre)
}

// contributors 是 Faneditor name 字段（Kodi 里映射为 director）。
func contributors(doc *goquery.Document) ([]string, bool) {
	return anchorList(doc, rowFaneditor)
}

// anchorList 收集字段行内 ul.jrFieldValueList 下每个 li 的链接文本。
// 保持文档顺序，不去重；区块存在但没有条目时返回非 nil 的空切片。
func anchorList(doc *goquery.Document, row string) ([]string, bool) {
	list := fieldRow(doc, row).Find("ul.jrFieldValueList").First()
	if list.Length() == 0 {
		return nil, false
	}
	out := make([]string, 0, 4)
	list.Find("li a").Each(func(_ int, a *goquery.Selection) {
		if s := strings.TrimSpace(a.Text()); s != "" {
			out = append(out, s)
		}
	})
	return out, true
}

// rating 取第一个文本形如 "Rating: 7.5 /10" 的 span。
// 数字缺失、无法解析（如 "1.2.3"）或超出 0-10 视为缺失。
func rating(doc *goquery.Document) (float64, bool) {
	var m []string
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m = ratingRE.FindStringSubmatch(s.Text())
		return m == nil
	})
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 10 {
		return 0, false
	}
	return v, true
}

// votes 取第一个文本形如 "(12 votes)" 的 span。
func votes(doc *goquery.Document) (int, bool) {
	var m []string
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m = votesRE.FindStringSubmatch(strings.TrimSpace(s.Text()))
		return m == nil
	})
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// tagline 取第一个以 <strong>Tagline:</strong> 开头的 li。
func tagline(doc *goquery.Document) (string, bool) {
	var (
		out   string
		found bool
	)
	doc.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		label := li.Children().First()
		if goquery.NodeName(label) != "strong" || strings.TrimSpace(label.Text()) != taglineLabel {
			return true
		}
		text := strings.TrimSpace(li.Text())
		if !strings.HasPrefix(text, taglineLabel) {
			// strong 前面还有文本：不是“以标签开头”的条目。
			return true
		}
		out = strings.TrimSpace(strings.TrimPrefix(text, taglineLabel))
		found = true
		return false
	})
	return out, found && out != ""
}

// poster 取主图容器里 lightbox 链接（class=fancybox）的 href，原样返回。
func poster(doc *goquery.Document) (string, bool) {
	href, ok := doc.Find("div.jrListingMainImage a.fancybox").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return href, true
}
