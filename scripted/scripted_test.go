package scripted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"bugmaschine/booru-mux/booru"
	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/schema"
)

// stubTransport answers every request with body.
type stubTransport struct {
	body     string
	requests []string
}

func (s *stubTransport) Get(ctx context.Context, url string) (*booru.Response, error) {
	s.requests = append(s.requests, url)
	return &booru.Response{StatusCode: 200, ContentLength: -1, Body: io.NopCloser(strings.NewReader(s.body))}, nil
}

// upstream is a made-up site whose responses the script below understands.
const upstream = `{"data": {"items": [
	{"pid": 10, "md5": "aa", "votes": 4, "safety": "s", "keywords": "fox;blue", "src": "https://img.example.org/10.png"},
	{"pid": 11, "md5": "bb", "votes": null, "safety": "e", "keywords": "", "src": ""}
]}}`

var safety = map[string]string{"s": "safe", "q": "questionable", "e": "explicit"}

func exampleScript() Funcs {
	return Funcs{
		SearchURL: func(ctx context.Context, args ...any) (any, error) {
			page, limit, order := args[0].(int), args[1].(int), args[2].(string)
			include := args[3].([]string)
			return fmt.Sprintf("https://api.example.org/search?p=%d&n=%d&sort=%s&q=%s", page, limit, order, strings.Join(include, ",")), nil
		},
		ParseSearch: func(ctx context.Context, args ...any) (any, error) {
			var resp struct {
				Data struct {
					Items []struct {
						PID      int    `json:"pid"`
						MD5      string `json:"md5"`
						Votes    *int   `json:"votes"`
						Safety   string `json:"safety"`
						Keywords string `json:"keywords"`
						Src      string `json:"src"`
					} `json:"items"`
				} `json:"data"`
			}
			if err := json.Unmarshal([]byte(args[0].(string)), &resp); err != nil {
				return nil, err
			}
			var records []map[string]any
			for _, it := range resp.Data.Items {
				var score any
				if it.Votes != nil {
					score = *it.Votes
				}
				records = append(records, map[string]any{
					"id":           it.PID,
					"hash":         it.MD5,
					"score":        score,
					"rating":       safety[it.Safety],
					"tags":         strings.Split(it.Keywords, ";"),
					"resource_url": it.Src,
				})
			}
			return records, nil
		},
	}
}

func TestSearch(t *testing.T) {
	tr := &stubTransport{body: upstream}
	src, err := New("example", exampleScript(), WithTransport(tr))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	posts, err := src.Search(context.Background(), booru.Query{Page: 2, Limit: 5, Order: schema.MostLiked, Include: []string{"fox"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := "https://api.example.org/search?p=2&n=5&sort=most_liked&q=fox"
	if len(tr.requests) != 1 || tr.requests[0] != want {
		t.Errorf("requests = %v, want [%s]", tr.requests, want)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1 (null score skipped)", len(posts))
	}
	p := posts[0]
	if p.ID != 10 || p.Score != 4 || p.Rating != model.Safe || p.Hash != "aa" {
		t.Errorf("post = %+v", p)
	}
	if !p.Tags.Flat.Equal(model.NewTagSet("blue", "fox")) || p.FileName() != "10.png" {
		t.Errorf("tags = %v, file = %q", p.Tags.Flat, p.FileName())
	}
}

func TestSearchCategorized(t *testing.T) {
	script := Funcs{
		SearchURL: func(context.Context, ...any) (any, error) { return "https://api.example.org/s", nil },
		ParseSearch: func(context.Context, ...any) (any, error) {
			return `[{"id": 1, "score": -3, "rating": "general", "tags": {"artist": ["someone"], "general": ["fox", "fox"]}}]`, nil
		},
	}
	src, err := New("example", script, WithTransport(&stubTransport{body: `{}`}), WithTagCategories("artist", "general"))
	if err != nil {
		t.Fatal(err)
	}
	posts, err := src.Search(context.Background(), booru.Query{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(posts) != 1 || !posts[0].Tags.IsCategorized() || !posts[0].Tags.Categories["general"].Equal(model.NewTagSet("fox")) {
		t.Fatalf("posts = %+v", posts)
	}
	if posts[0].Score != -3 {
		t.Errorf("score = %d", posts[0].Score)
	}
}

func TestNewRequiresFunctions(t *testing.T) {
	_, err := New("broken", Funcs{SearchURL: exampleScript()[SearchURL]})
	if booru.KindOf(err) != booru.KindScript {
		t.Fatalf("err = %v, want script failure", err)
	}
}

func TestTagsUnsupported(t *testing.T) {
	tr := &stubTransport{body: `[]`}
	src, err := New("example", exampleScript(), WithTransport(tr))
	if err != nil {
		t.Fatal(err)
	}
	_, err = src.Tags(context.Background(), 1, 10)
	if booru.KindOf(err) != booru.KindUnsupported || !errors.Is(err, booru.ErrUnsupported) {
		t.Fatalf("err = %v, want unsupported", err)
	}
	if len(tr.requests) != 0 {
		t.Errorf("made %d requests", len(tr.requests))
	}
}

func TestTags(t *testing.T) {
	script := exampleScript()
	script[TagListURL] = func(ctx context.Context, args ...any) (any, error) {
		return fmt.Sprintf("https://api.example.org/tags?p=%d&n=%d", args[0], args[1]), nil
	}
	script[ParseTags] = func(ctx context.Context, args ...any) (any, error) {
		return []any{map[string]any{"id": 3, "name": "fox", "count": uint64(900)}}, nil
	}
	tr := &stubTransport{body: `ignored`}
	src, err := New("example", script, WithTransport(tr))
	if err != nil {
		t.Fatal(err)
	}

	tags, err := src.Tags(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 1 || tags[0] != (model.Tag{ID: 3, Name: "fox", Count: 900}) {
		t.Errorf("tags = %+v", tags)
	}
	if tr.requests[0] != "https://api.example.org/tags?p=1&n=10" {
		t.Errorf("url = %s", tr.requests[0])
	}
}

func TestScriptErrors(t *testing.T) {
	tests := []struct {
		name  string
		url   Func
		parse Func
		want  booru.Kind
	}{
		{
			name:  "url function fails",
			url:   func(context.Context, ...any) (any, error) { return nil, errors.New("index out of range") },
			parse: func(context.Context, ...any) (any, error) { return "[]", nil },
			want:  booru.KindScript,
		},
		{
			name:  "url is not a string",
			url:   func(context.Context, ...any) (any, error) { return 42, nil },
			parse: func(context.Context, ...any) (any, error) { return "[]", nil },
			want:  booru.KindScript,
		},
		{
			name:  "records are not an array",
			url:   func(context.Context, ...any) (any, error) { return "https://x", nil },
			parse: func(context.Context, ...any) (any, error) { return map[string]any{"id": 1}, nil },
			want:  booru.KindMalformedEnvelope,
		},
		{
			name:  "unknown rating",
			url:   func(context.Context, ...any) (any, error) { return "https://x", nil },
			parse: func(context.Context, ...any) (any, error) { return `[{"id":1,"score":1,"rating":"s","tags":[]}]`, nil },
			want:  booru.KindUnknownAlias,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New("example", Funcs{SearchURL: tt.url, ParseSearch: tt.parse}, WithTransport(&stubTransport{body: "[]"}))
			if err != nil {
				t.Fatal(err)
			}
			_, err = src.Search(context.Background(), booru.Query{})
			if got := booru.KindOf(err); got != tt.want {
				t.Errorf("kind = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestWorksWithSearchBuilder(t *testing.T) {
	tr := &stubTransport{body: upstream}
	src, err := New("example", exampleScript(), WithTransport(tr))
	if err != nil {
		t.Fatal(err)
	}
	posts, err := booru.NewSearch(src).Include("Blue Sky").SearchAsync(context.Background()).Wait()
	if err != nil || len(posts) != 1 {
		t.Fatalf("SearchAsync = %v, %v", posts, err)
	}
	if !strings.HasSuffix(tr.requests[0], "&q=blue_sky") {
		t.Errorf("url = %s", tr.requests[0])
	}
}
