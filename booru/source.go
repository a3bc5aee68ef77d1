// Package booru is the facade over every supported image board. A Source
// searches posts, lists tags and downloads assets; Client is the Source
// driven by a declarative schema.
package booru

import (
	"context"
	"io"

	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/schema"
)

// Source is the capability set shared by schema-driven and scripted sources.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]model.Post, error)
	Tags(ctx context.Context, page, limit int) ([]model.Tag, error)
	Download(ctx context.Context, post model.Post) (*Asset, error)
}

// Query holds the caller's search parameters. Tags are normalized before
// they reach the url.
type Query struct {
	Page    int
	Limit   int
	Order   schema.Order
	Include []string
	Exclude []string
}

// Asset is a streamed file. The caller must close Body.
type Asset struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64 // -1 when unknown
}

// Operation names used in errors.
const (
	OpNew      = "new"
	OpSearch   = "search"
	OpTags     = "tags"
	OpDownload = "download"
)
