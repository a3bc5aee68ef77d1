package model

import (
	"net/url"
	"path"
	"strings"
)

// Post is the normalised form of a search result from any source.
type Post struct {
	ID          uint64 `json:"id"`
	Score       int64  `json:"score"`
	Rating      Rating `json:"rating"`
	Tags        Tags   `json:"tags"`
	Hash        string `json:"hash,omitempty"`
	ResourceURL string `json:"resource_url,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// FileName returns the last path segment of the resource url, or an empty
// string if the post has none.
func (p Post) FileName() string {
	if p.ResourceURL == "" {
		return ""
	}
	raw := p.ResourceURL
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	name := path.Base(raw)
	if name == "." || name == "/" || strings.HasSuffix(raw, "/") {
		return ""
	}
	return name
}

// Tag is one entry of a source's tag list.
type Tag struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Count uint64 `json:"count"`
}
