package booru

import (
	"context"
	"fmt"

	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/mapping"
	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/schema"
	"bugmaschine/booru-mux/urlbuild"
)

// Client is a Source driven entirely by a schema.Source. It holds no mutable
// state and is safe for concurrent use.
type Client struct {
	src       *schema.Source
	transport Transport
	userAgent string
}

type Option func(*Client)

// WithTransport replaces the default net/http transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithUserAgent overrides DefaultUserAgent. It has no effect together with
// WithTransport.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// New validates src and returns a client for it.
func New(src *schema.Source, opts ...Option) (*Client, error) {
	if src == nil {
		return nil, &Error{Op: OpNew, Kind: KindInvalidSchema, Err: fmt.Errorf("%w: nil source", mapping.ErrInvalidSchema)}
	}
	if err := src.Validate(); err != nil {
		return nil, &Error{Source: src.Name, Op: OpNew, Kind: KindInvalidSchema, Err: fmt.Errorf("%w: %w", mapping.ErrInvalidSchema, err)}
	}

	c := &Client{src: src}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(c.userAgent)
	}
	return c, nil
}

func (c *Client) Name() string {
	return c.src.Name
}

// Schema returns the source definition the client was built from.
func (c *Client) Schema() *schema.Source {
	return c.src
}

// SupportsTagList reports whether Tags can succeed.
func (c *Client) SupportsTagList() bool {
	return c.src.SupportsTagList()
}

// SearchURL returns the url Search would request for q.
func (c *Client) SearchURL(q Query) string {
	return urlbuild.Search(&c.src.Search, q.Page, q.Limit, q.Order,
		urlbuild.NormalizeTags(q.Include), urlbuild.NormalizeTags(q.Exclude))
}

// TagListURL returns the url Tags would request. ok is false when the source
// has no tag list.
func (c *Client) TagListURL(page, limit int) (url string, ok bool) {
	if c.src.TagList == nil {
		return "", false
	}
	return urlbuild.TagList(c.src.TagList, page, limit), true
}

// Search fetches one page of posts. Posts with a null id, score or rating are
// skipped; any other malformed record fails the whole page.
func (c *Client) Search(ctx context.Context, q Query) ([]model.Post, error) {
	url := c.SearchURL(q)
	logging.Debug("%s: searching %s", c.src.Name, url)

	body, err := Fetch(ctx, c.transport, url)
	if err != nil {
		return nil, Wrap(c.src.Name, OpSearch, err)
	}

	posts, skipped, err := mapping.ParsePosts(body, &c.src.Search)
	if err != nil {
		return nil, Wrap(c.src.Name, OpSearch, err)
	}
	if skipped > 0 {
		logging.Debug("%s: skipped %d of %d posts with null fields", c.src.Name, skipped, skipped+len(posts))
	}
	return posts, nil
}

// Tags fetches one page of the source's tag list. Sources without a tag list
// fail with KindUnsupported before any request is made.
func (c *Client) Tags(ctx context.Context, page, limit int) ([]model.Tag, error) {
	url, ok := c.TagListURL(page, limit)
	if !ok {
		return nil, Unsupported(c.src.Name, OpTags, "source has no tag list")
	}
	logging.Debug("%s: listing tags %s", c.src.Name, url)

	body, err := Fetch(ctx, c.transport, url)
	if err != nil {
		return nil, Wrap(c.src.Name, OpTags, err)
	}
	tags, err := mapping.ParseTags(body, c.src.TagList)
	if err != nil {
		return nil, Wrap(c.src.Name, OpTags, err)
	}
	return tags, nil
}

// Download streams the post's resource.
func (c *Client) Download(ctx context.Context, post model.Post) (*Asset, error) {
	return FetchAsset(ctx, c.transport, c.src.Name, post)
}

func (c *Client) SearchAsync(ctx context.Context, q Query) *Future[[]model.Post] {
	return SearchAsync(ctx, c, q)
}

func (c *Client) TagsAsync(ctx context.Context, page, limit int) *Future[[]model.Tag] {
	return TagsAsync(ctx, c, page, limit)
}

func (c *Client) DownloadAsync(ctx context.Context, post model.Post) *Future[*Asset] {
	return DownloadAsync(ctx, c, post)
}
