package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/ifdb/internal/infra/httpx"
	"github.com/John-Robertt/ifdb/internal/provider"
)

func newStubClient(t *testing.T, h http.HandlerFunc, key, cx string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	hc, err := httpx.NewClient(httpx.Options{})
	if err != nil {
		t.Fatalf("创建 http client 失败：%v", err)
	}
	c, err := NewClient(context.Background(), Options{
		APIKey:         key,
		SearchEngineID: cx,
		Endpoint:       srv.URL,
		HTTPClient:     hc,
	})
	if err != nil {
		t.Fatalf("创建 search client 失败：%v", err)
	}
	return c
}

func TestSearch_EncodesParamsAndReturnsItems(t *testing.T) {
	queries := make(chan url.Values, 1)
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/customsearch/v1" {
			http.NotFound(w, r)
			return
		}
		queries <- r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Mr White Part II: Phoenix","link":"https://fanedit.org/mr-white-part-ii-phoenix/"},
			{"title":"Elsewhere","link":"https://example.com/mr-white"}
		]}`))
	}, "AIzaSy-ABC+123/456=", "abc-123:def_456")

	items, err := c.Search(context.Background(), "Star Wars: A New Hope & Empire")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	q := <-queries
	if q.Get("key") != "AIzaSy-ABC+123/456=" {
		t.Fatalf("key 编码不正确：%q", q.Get("key"))
	}
	if q.Get("cx") != "abc-123:def_456" {
		t.Fatalf("cx 编码不正确：%q", q.Get("cx"))
	}
	if q.Get("q") != "Star Wars: A New Hope & Empire" {
		t.Fatalf("q 编码不正确：%q", q.Get("q"))
	}

	want := []Item{
		{Title: "Mr White Part II: Phoenix", Link: "https://fanedit.org/mr-white-part-ii-phoenix/"},
		{Title: "Elsewhere", Link: "https://example.com/mr-white"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items 不一致（-want +got）：\n%s", diff)
	}
}

func TestSearch_NoItemsIsZeroResults(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind":"customsearch#search","searchInformation":{"totalResults":"0"}}`))
	}, "k", "cx")

	items, err := c.Search(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(items) != 0 {
		t.Fatalf("期望 0 条，实际 %d", len(items))
	}
}

func TestSearch_APIErrorIsHTTPStatusError(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
	}, "bad", "cx")

	_, err := c.Search(context.Background(), "x")
	var se *provider.HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("期望 HTTPStatusError，实际 %T %v", err, err)
	}
	if se.StatusCode != http.StatusBadRequest || se.Message != "API key not valid. Please pass a valid API key." {
		t.Fatalf("错误内容不一致：%+v", se)
	}
}

func TestSearch_NonJSONIsParseError(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>captive portal</html>`))
	}, "k", "cx")

	_, err := c.Search(context.Background(), "x")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("期望 ParseError，实际 %T %v", err, err)
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	hc, _ := httpx.NewClient(httpx.Options{})
	if _, err := NewClient(context.Background(), Options{HTTPClient: hc, SearchEngineID: "cx"}); err == nil {
		t.Fatalf("缺少 api_key 时期望错误")
	}
	if _, err := NewClient(context.Background(), Options{APIKey: "k", SearchEngineID: "cx"}); err == nil {
		t.Fatalf("缺少 http client 时期望错误")
	}
}

func TestQuery(t *testing.T) {
	if got := Query(" Mr White Part II ", ""); got != "Mr White Part II" {
		t.Fatalf("Query 不一致：%q", got)
	}
	if got := Query("Alien", "1979"); got != "Alien 1979" {
		t.Fatalf("Query 不一致：%q", got)
	}
}
