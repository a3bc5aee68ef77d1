package booru

import (
	"context"
	"sort"

	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/schema"
	"bugmaschine/booru-mux/urlbuild"
)

const (
	DefaultPage  = 1
	DefaultLimit = 16
)

// SearchBuilder assembles a Query step by step. A tag is either included or
// excluded: adding it to one set removes it from the other.
//
//	posts, err := booru.NewSearch(src).Include("fox").Exclude("human").Limit(50).Search(ctx)
type SearchBuilder struct {
	src     Source
	page    int
	limit   int
	order   schema.Order
	include map[string]struct{}
	exclude map[string]struct{}
}

func NewSearch(src Source) *SearchBuilder {
	return &SearchBuilder{
		src:     src,
		page:    DefaultPage,
		limit:   DefaultLimit,
		order:   schema.Newest,
		include: make(map[string]struct{}),
		exclude: make(map[string]struct{}),
	}
}

func (b *SearchBuilder) Include(tags ...string) *SearchBuilder {
	for _, tag := range tags {
		if tag = urlbuild.NormalizeTag(tag); tag != "" {
			delete(b.exclude, tag)
			b.include[tag] = struct{}{}
		}
	}
	return b
}

func (b *SearchBuilder) Exclude(tags ...string) *SearchBuilder {
	for _, tag := range tags {
		if tag = urlbuild.NormalizeTag(tag); tag != "" {
			delete(b.include, tag)
			b.exclude[tag] = struct{}{}
		}
	}
	return b
}

func (b *SearchBuilder) Order(order schema.Order) *SearchBuilder {
	b.order = order
	return b
}

func (b *SearchBuilder) Page(page int) *SearchBuilder {
	b.page = page
	return b
}

func (b *SearchBuilder) Limit(limit int) *SearchBuilder {
	b.limit = limit
	return b
}

// Query returns the assembled parameters with both tag sets sorted.
func (b *SearchBuilder) Query() Query {
	return Query{
		Page:    b.page,
		Limit:   b.limit,
		Order:   b.order,
		Include: sortedKeys(b.include),
		Exclude: sortedKeys(b.exclude),
	}
}

func (b *SearchBuilder) Search(ctx context.Context) ([]model.Post, error) {
	return b.src.Search(ctx, b.Query())
}

func (b *SearchBuilder) SearchAsync(ctx context.Context) *Future[[]model.Post] {
	return SearchAsync(ctx, b.src, b.Query())
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
