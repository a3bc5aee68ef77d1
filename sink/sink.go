// Package sink stores downloaded assets. Objects are addressed by a key
// derived from the source and the post's file name.
package sink

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"bugmaschine/booru-mux/model"
)

var ErrNotFound = errors.New("object not found")

// Object is an asset read back from a sink. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

type Sink interface {
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Key returns "<source>/<file name>" for post, or "" when the post has no
// resource url to take a name from.
func Key(source string, post model.Post) string {
	name := post.FileName()
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return path.Join(strings.ToLower(source), name)
}

// ContentType guesses the media type from the key's extension.
func ContentType(key string) string {
	switch ext := strings.ToLower(filepath.Ext(key)); ext {
	// Images
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".avif":
		return "image/avif"

	// Videos
	case ".webm":
		return "video/webm"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	case ".flv":
		return "video/x-flv"
	case ".ogv":
		return "video/ogg"

	case ".swf":
		return "application/x-shockwave-flash"
	default:
		return "application/octet-stream"
	}
}
