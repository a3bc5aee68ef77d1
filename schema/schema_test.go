package schema

import (
	"strings"
	"testing"

	"bugmaschine/booru-mux/model"
)

func validSource() *Source {
	return &Source{
		Name: "Test",
		Search: SearchSchema{
			BaseURL:    "https://example.com/posts.json?",
			Parameters: SearchParameters{Tags: "tags", Page: "page", Limit: "limit"},
			Order:      map[Order]string{Newest: "order:id_desc"},
			Post: PostSchema{
				ID:      "id",
				Score:   "score",
				Rating:  "rating",
				Ratings: map[string]model.Rating{"s": model.Sensitive},
				Tags:    FlatTags("tags", ""),
			},
		},
	}
}

func TestBuiltinCatalogue(t *testing.T) {
	cat, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}

	want := []string{"Danbooru", "E621", "E926", "Rule34"}
	if got := cat.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	e621, ok := cat.Get("e621")
	if !ok {
		t.Fatalf("e621 missing from catalogue")
	}
	if e621.Search.ResultKey != "posts" {
		t.Errorf("e621 result key = %q", e621.Search.ResultKey)
	}
	if e621.Search.Order[MostLiked] != "order:score_desc" {
		t.Errorf("e621 most liked token = %q", e621.Search.Order[MostLiked])
	}
	if e621.Search.Post.Ratings["s"] != model.Sensitive {
		t.Errorf("e621 rating s = %v", e621.Search.Post.Ratings["s"])
	}
	if e621.Search.Post.Tags.Kind != CategorizedLayout || e621.Search.Post.Tags.FieldFor("lore") != "tags.lore" {
		t.Errorf("e621 tag schema = %+v", e621.Search.Post.Tags)
	}
	if !e621.SupportsTagList() || e621.TagList.Tag.Count != "post_count" {
		t.Errorf("e621 tag list = %+v", e621.TagList)
	}

	rule34, _ := cat.Get("Rule34")
	if rule34.SupportsTagList() {
		t.Errorf("rule34 should not support tag lists")
	}
	if rule34.Search.Post.Tags.Kind != FlatLayout || rule34.Search.Post.Tags.Separator != " " {
		t.Errorf("rule34 tag schema = %+v", rule34.Search.Post.Tags)
	}
	if rule34.Search.Parameters.Page != "pid" {
		t.Errorf("rule34 page parameter = %q", rule34.Search.Parameters.Page)
	}

	danbooru, _ := cat.Get("DANBOORU")
	if danbooru.Search.ResultKey != "" {
		t.Errorf("danbooru result key = %q", danbooru.Search.ResultKey)
	}
}

func TestValidate(t *testing.T) {
	if err := validSource().Validate(); err != nil {
		t.Fatalf("valid source rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Source)
		want   string
	}{
		{"no name", func(s *Source) { s.Name = "" }, "name is empty"},
		{"no base url", func(s *Source) { s.Search.BaseURL = "" }, "base_url is empty"},
		{"no ratings", func(s *Source) { s.Search.Post.Ratings = nil }, "post.ratings is empty"},
		{"long separator", func(s *Source) { s.Search.Post.Tags.Separator = ", " }, "single character"},
		{"flat without key", func(s *Source) { s.Search.Post.Tags = FlatTags("", "") }, "needs a key"},
		{"no categories", func(s *Source) { s.Search.Post.Tags = CategorizedTags("tags.", nil, "") }, "at least one category"},
		{"duplicate category", func(s *Source) {
			s.Search.Post.Tags = CategorizedTags("tags.", []string{"general", "general"}, "")
		}, "listed twice"},
		{"unknown layout", func(s *Source) { s.Search.Post.Tags.Kind = "nested" }, "unknown layout"},
		{"bad tag list", func(s *Source) { s.TagList = &TagListSchema{BaseURL: "https://example.com/tags.json?"} }, "tag.name is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := validSource()
			tt.mutate(src)
			err := src.Validate()
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseCatalogueRejectsDuplicates(t *testing.T) {
	data := []byte(`
sources:
  - name: Dup
    search: &s
      base_url: "https://example.com/?"
      parameters: {tags: tags, page: page, limit: limit}
      post:
        id: id
        score: score
        rating: rating
        ratings: {s: safe}
        tags: {kind: flat, key: tags}
  - name: dup
    search: *s
`)
	if _, err := ParseCatalogue(data); err == nil || !strings.Contains(err.Error(), "defined twice") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestParseOrder(t *testing.T) {
	for _, o := range []Order{Newest, Oldest, MostLiked, LeastLiked} {
		got, err := ParseOrder(o.String())
		if err != nil || got != o {
			t.Errorf("ParseOrder(%q) = %v, %v", o.String(), got, err)
		}
	}
	if _, err := ParseOrder("random"); err == nil {
		t.Errorf("expected error for unknown order")
	}
}

func TestSeparatorDefaults(t *testing.T) {
	var s SearchSchema
	if s.Separator() != "+" || s.Exclusion() != "-" {
		t.Errorf("defaults = %q %q", s.Separator(), s.Exclusion())
	}
	s.TagSeparator, s.ExclusionPrefix = " ", "~"
	if s.Separator() != " " || s.Exclusion() != "~" {
		t.Errorf("overrides = %q %q", s.Separator(), s.Exclusion())
	}
}
