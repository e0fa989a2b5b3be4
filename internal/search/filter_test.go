package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/ifdb/internal/domain"
)

func TestFilter_StructuralHostMatch(t *testing.T) {
	items := []Item{
		{Title: "x", Link: "https://example.org/x"},
		{Title: "y", Link: "https://sub.example.org/y"},
		{Title: "z", Link: "https://notexample.org/z"},
		{Title: "evil", Link: "https://example.org.evil.com/z"},
	}

	got := Filter(items, "example.org")
	want := []domain.SearchResult{
		{Title: "x", URL: "https://example.org/x"},
		{Title: "y", URL: "https://sub.example.org/y"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("过滤结果不一致（-want +got）：\n%s", diff)
	}
}

func TestFilter_EmptyInput(t *testing.T) {
	got := Filter(nil, "fanedit.org")
	if got == nil || len(got) != 0 {
		t.Fatalf("期望非 nil 的空结果，实际 %#v", got)
	}
}

func TestInDomain(t *testing.T) {
	cases := []struct {
		link string
		site string
		want bool
	}{
		{"https://FANEDIT.org/a/", "fanedit.org", true},
		{"https://www.fanedit.org./a/", "fanedit.org", true},
		{"http://fanedit.org:8080/a/", "fanedit.org", true},
		{"https://fanedit.org/a/", "FanEdit.org.", true},
		{"https://forum.fanedit.org/a/", "fanedit.org", true},
		{"https://evil.com/?u=https://fanedit.org/", "fanedit.org", false},
		{"https://fanedit.org@evil.com/", "fanedit.org", false},
		{"ftp://fanedit.org/a", "fanedit.org", false},
		{"fanedit.org/a", "fanedit.org", false},
		{"://bad", "fanedit.org", false},
		{"https://fanedit.org/", "", false},
	}
	for _, tc := range cases {
		if got := InDomain(tc.link, tc.site); got != tc.want {
			t.Fatalf("InDomain(%q,%q) 期望 %v，实际 %v", tc.link, tc.site, tc.want, got)
		}
	}
}

func TestValidateDomain(t *testing.T) {
	ok := map[string]string{
		"fanedit.org":     "fanedit.org",
		" FanEdit.org. ":  "fanedit.org",
		"www.fanedit.org": "www.fanedit.org",
		"127.0.0.1":       "127.0.0.1",
		"example.co.uk":   "example.co.uk",
	}
	for in, want := range ok {
		got, err := ValidateDomain(in)
		if err != nil {
			t.Fatalf("ValidateDomain(%q) 不期望错误：%v", in, err)
		}
		if got != want {
			t.Fatalf("ValidateDomain(%q) 期望 %q，实际 %q", in, want, got)
		}
	}

	for _, in := range []string{"", "org", "co.uk", "https://fanedit.org", "fanedit.org/path"} {
		if _, err := ValidateDomain(in); err == nil {
			t.Fatalf("ValidateDomain(%q) 期望错误，但得到 nil", in)
		}
	}
}
