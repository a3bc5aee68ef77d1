// Package schema describes how to talk to one image board API: where its
// endpoints live, which query parameters it expects and where each post or
// tag field sits inside its JSON responses.
//
// Schemas are plain data. They are loaded once, validated, and then shared
// read only by every request made against the source.
package schema

import (
	"fmt"
	"strings"

	"bugmaschine/booru-mux/model"
)

// Order selects the sort order of a search.
type Order int

const (
	Newest Order = iota
	Oldest
	MostLiked
	LeastLiked
)

var orderNames = [...]string{
	Newest:     "newest",
	Oldest:     "oldest",
	MostLiked:  "most_liked",
	LeastLiked: "least_liked",
}

func (o Order) String() string {
	if o < 0 || int(o) >= len(orderNames) {
		return fmt.Sprintf("order(%d)", int(o))
	}
	return orderNames[o]
}

func ParseOrder(s string) (Order, error) {
	for i, name := range orderNames {
		if strings.EqualFold(s, name) {
			return Order(i), nil
		}
	}
	return 0, fmt.Errorf("unknown order %q", s)
}

func (o Order) MarshalText() ([]byte, error) {
	if o < 0 || int(o) >= len(orderNames) {
		return nil, fmt.Errorf("invalid order %d", int(o))
	}
	return []byte(orderNames[o]), nil
}

func (o *Order) UnmarshalText(text []byte) error {
	parsed, err := ParseOrder(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Source is everything needed to query one image board.
type Source struct {
	Name    string         `yaml:"name"`
	Search  SearchSchema   `yaml:"search"`
	TagList *TagListSchema `yaml:"tag_list,omitempty"`
}

// SupportsTagList reports whether the source has a tag list endpoint.
func (s *Source) SupportsTagList() bool {
	return s.TagList != nil
}

type SearchSchema struct {
	BaseURL    string           `yaml:"base_url"`
	Parameters SearchParameters `yaml:"parameters"`

	// TagSeparator joins the tokens of the tag expression, "+" when empty.
	TagSeparator string `yaml:"tag_separator"`
	// ExclusionPrefix marks an excluded tag, "-" when empty.
	ExclusionPrefix string `yaml:"exclusion_prefix"`

	// ResultKey names the array of posts inside an object response. When
	// empty the response body itself is the array.
	ResultKey string `yaml:"result_key,omitempty"`

	// ImplicitTags are appended to every search, e.g. "-status:deleted".
	ImplicitTags []string `yaml:"implicit_tags,omitempty"`

	Order map[Order]string `yaml:"order"`
	Post  PostSchema       `yaml:"post"`
}

type SearchParameters struct {
	Tags  string `yaml:"tags"`
	Page  string `yaml:"page"`
	Limit string `yaml:"limit"`
}

// PostSchema holds the field paths of a post. Paths may be dotted to reach
// into nested objects ("file.md5").
type PostSchema struct {
	ID          string `yaml:"id"`
	Hash        string `yaml:"hash"`
	Score       string `yaml:"score"`
	ResourceURL string `yaml:"resource_url"`
	PreviewURL  string `yaml:"preview_url,omitempty"`

	Rating  string                  `yaml:"rating"`
	Ratings map[string]model.Rating `yaml:"ratings"`

	Tags TagSchema `yaml:"tags"`
}

// TagSchema is one of two layouts. A flat schema keeps every tag under a
// single key. A categorized schema spreads them over one key per category,
// named Prefix+category.
//
// Both layouts hold either a JSON array of strings or, when Separator is set,
// a single string of tags joined by Separator.
type TagSchema struct {
	Kind TagLayout `yaml:"kind"`

	// Flat
	Key string `yaml:"key,omitempty"`

	// Categorized
	Prefix     string   `yaml:"prefix,omitempty"`
	Categories []string `yaml:"categories,omitempty"`

	Separator string `yaml:"separator,omitempty"`
}

type TagLayout string

const (
	FlatLayout        TagLayout = "flat"
	CategorizedLayout TagLayout = "categorized"
)

func FlatTags(key, separator string) TagSchema {
	return TagSchema{Kind: FlatLayout, Key: key, Separator: separator}
}

func CategorizedTags(prefix string, categories []string, separator string) TagSchema {
	return TagSchema{Kind: CategorizedLayout, Prefix: prefix, Categories: categories, Separator: separator}
}

// FieldFor returns the field path holding the tags of the given category.
func (t TagSchema) FieldFor(category string) string {
	return t.Prefix + category
}

type TagListSchema struct {
	BaseURL    string            `yaml:"base_url"`
	ResultKey  string            `yaml:"result_key,omitempty"`
	Parameters TagListParameters `yaml:"parameters"`
	Tag        TagFields         `yaml:"tag"`
}

type TagListParameters struct {
	Page  string `yaml:"page"`
	Limit string `yaml:"limit"`
	// Order is appended verbatim, e.g. "search[order]=count".
	Order string `yaml:"order,omitempty"`
}

type TagFields struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Count string `yaml:"count"`
}

func (s *SearchSchema) Separator() string {
	if s.TagSeparator == "" {
		return "+"
	}
	return s.TagSeparator
}

func (s *SearchSchema) Exclusion() string {
	if s.ExclusionPrefix == "" {
		return "-"
	}
	return s.ExclusionPrefix
}
