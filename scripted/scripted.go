// Package scripted adapts a source whose logic lives in a script to the
// booru.Source contract. The script engine is opaque: anything that can
// answer Has and Call for the four function names below will do.
package scripted

import (
	"context"
	"encoding/json"
	"fmt"

	"bugmaschine/booru-mux/booru"
	"bugmaschine/booru-mux/mapping"
	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/schema"
)

// Function names a script may define. The first and third are required.
const (
	SearchURL   = "get_search_url"      // (page, limit int, order string, include, exclude []string) string
	TagListURL  = "get_tag_list_url"    // (page, limit int) string
	ParseSearch = "parse_search_result" // (body string) records
	ParseTags   = "parse_tag_list"      // (body string) records
)

// Evaluator runs functions defined by a script.
type Evaluator interface {
	Has(name string) bool
	Call(ctx context.Context, name string, args ...any) (any, error)
}

// Func is a script function implemented in Go.
type Func func(ctx context.Context, args ...any) (any, error)

// Funcs is an Evaluator backed by a map, mostly useful for tests and for
// sources that are easier to write in Go than to describe with a schema.
type Funcs map[string]Func

func (f Funcs) Has(name string) bool {
	return f[name] != nil
}

func (f Funcs) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn := f[name]
	if fn == nil {
		return nil, fmt.Errorf("%w: %s is not defined", booru.ErrScript, name)
	}
	return fn(ctx, args...)
}

// Parse functions return records in this layout. Tags are a flat list unless
// WithTagCategories is given, in which case they are an object of lists.
var canonicalRatings = map[string]model.Rating{
	"general":      model.General,
	"safe":         model.Safe,
	"sensitive":    model.Sensitive,
	"questionable": model.Questionable,
	"explicit":     model.Explicit,
}

func canonicalPost(categories []string) *schema.PostSchema {
	tags := schema.FlatTags("tags", "")
	if len(categories) > 0 {
		tags = schema.CategorizedTags("tags.", categories, "")
	}
	return &schema.PostSchema{
		ID:          "id",
		Hash:        "hash",
		Score:       "score",
		ResourceURL: "resource_url",
		PreviewURL:  "preview_url",
		Rating:      "rating",
		Ratings:     canonicalRatings,
		Tags:        tags,
	}
}

var canonicalTag = &schema.TagFields{ID: "id", Name: "name", Count: "count"}

type Option func(*Source)

func WithTransport(t booru.Transport) Option {
	return func(s *Source) { s.transport = t }
}

func WithUserAgent(userAgent string) Option {
	return func(s *Source) { s.userAgent = userAgent }
}

// WithTagCategories makes parse_search_result return categorized tags.
func WithTagCategories(categories ...string) Option {
	return func(s *Source) { s.categories = categories }
}

// Source is a booru.Source whose urls and parsing come from an Evaluator.
type Source struct {
	name       string
	ev         Evaluator
	transport  booru.Transport
	userAgent  string
	categories []string
	post       *schema.PostSchema
}

var _ booru.Source = (*Source)(nil)

// New checks that ev defines the required functions.
func New(name string, ev Evaluator, opts ...Option) (*Source, error) {
	s := &Source{name: name, ev: ev}
	for _, opt := range opts {
		opt(s)
	}
	for _, fn := range []string{SearchURL, ParseSearch} {
		if !ev.Has(fn) {
			return nil, &booru.Error{Source: name, Op: booru.OpNew, Kind: booru.KindScript,
				Err: fmt.Errorf("%w: required function %s is not defined", booru.ErrScript, fn)}
		}
	}
	if s.transport == nil {
		s.transport = booru.NewHTTPTransport(s.userAgent)
	}
	s.post = canonicalPost(s.categories)
	return s, nil
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) SupportsTagList() bool {
	return s.ev.Has(TagListURL) && s.ev.Has(ParseTags)
}

func (s *Source) Search(ctx context.Context, q booru.Query) ([]model.Post, error) {
	url, err := s.callString(ctx, SearchURL, q.Page, q.Limit, q.Order.String(), q.Include, q.Exclude)
	if err != nil {
		return nil, booru.Wrap(s.name, booru.OpSearch, err)
	}
	body, err := booru.Fetch(ctx, s.transport, url)
	if err != nil {
		return nil, booru.Wrap(s.name, booru.OpSearch, err)
	}
	records, err := s.callRecords(ctx, ParseSearch, body)
	if err != nil {
		return nil, booru.Wrap(s.name, booru.OpSearch, err)
	}
	posts, _, err := mapping.MapPosts(records, s.post)
	if err != nil {
		return nil, booru.Wrap(s.name, booru.OpSearch, err)
	}
	return posts, nil
}

func (s *Source) Tags(ctx context.Context, page, limit int) ([]model.Tag, error) {
	if !s.SupportsTagList() {
		return nil, booru.Unsupported(s.name, booru.OpTags, "script defines no tag list")
	}
	url, err := s.callString(ctx, TagListURL, page, limit)
	if err != nil {
		return nil, booru.Wrap(s.name, booru.OpTags, err)
	}
	body, err := booru.Fetch(ctx, s.transport, url)
	if err != nil {
		return nil, booru.Wrap(s.name, booru.OpTags, err)
	}
	records, err := s.callRecords(ctx, ParseTags, body)
	if err != nil {
		return nil, booru.Wrap(s.name, booru.OpTags, err)
	}
	tags, err := mapping.MapTags(records, canonicalTag)
	if err != nil {
		return nil, booru.Wrap(s.name, booru.OpTags, err)
	}
	return tags, nil
}

func (s *Source) Download(ctx context.Context, post model.Post) (*booru.Asset, error) {
	return booru.FetchAsset(ctx, s.transport, s.name, post)
}

func (s *Source) callString(ctx context.Context, fn string, args ...any) (string, error) {
	out, err := s.ev.Call(ctx, fn, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", booru.ErrScript, fn, err)
	}
	str, ok := out.(string)
	if !ok || str == "" {
		return "", fmt.Errorf("%w: %s returned %T, want a non-empty string", booru.ErrScript, fn, out)
	}
	return str, nil
}

// callRecords runs a parse function and brings its result into the shape
// mapping expects: []any of map[string]any with json.Number values. Scripts
// may return the records themselves or a JSON document holding them.
func (s *Source) callRecords(ctx context.Context, fn string, body []byte) ([]any, error) {
	out, err := s.ev.Call(ctx, fn, string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", booru.ErrScript, fn, err)
	}

	var doc []byte
	switch v := out.(type) {
	case string:
		doc = []byte(v)
	case []byte:
		doc = v
	default:
		if doc, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("%w: %s returned %T which is not JSON encodable: %w", booru.ErrScript, fn, out, err)
		}
	}

	root, err := mapping.Decode(doc)
	if err != nil {
		return nil, err
	}
	return mapping.Unwrap(root, "")
}
