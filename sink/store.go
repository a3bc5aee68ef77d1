package sink

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"bugmaschine/booru-mux/booru"
	"bugmaschine/booru-mux/dualreader"
	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/model"
)

var ErrHashMismatch = errors.New("md5 mismatch")

// Downloader is the part of booru.Source that Store needs.
type Downloader interface {
	Name() string
	Download(ctx context.Context, post model.Post) (*booru.Asset, error)
}

type Result int

const (
	Stored Result = iota
	AlreadyStored
)

// Store downloads post into s unless it is already there. While uploading,
// the stream is hashed and compared to post.Hash; a mismatching object is
// deleted again.
func Store(ctx context.Context, d Downloader, post model.Post, s Sink) (Result, error) {
	key := Key(d.Name(), post)
	if key == "" {
		return 0, fmt.Errorf("post %d: no file name", post.ID)
	}

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return 0, err
	}
	if exists {
		logging.Debug("%s already stored", key)
		return AlreadyStored, nil
	}

	asset, err := d.Download(ctx, post)
	if err != nil {
		return 0, err
	}

	upload, hashed := dualreader.NewDualReader(asset.Body).Readers()
	sums := make(chan string, 1)
	go func() {
		defer hashed.Close()
		h := md5.New()
		if _, err := io.Copy(h, hashed); err != nil {
			sums <- ""
			return
		}
		sums <- hex.EncodeToString(h.Sum(nil))
	}()

	contentType := asset.ContentType
	if contentType == "" {
		contentType = ContentType(key)
	}
	err = s.Put(ctx, key, upload, contentType)
	upload.Close()
	sum := <-sums
	if err != nil {
		return 0, err
	}

	if post.Hash != "" && !strings.EqualFold(sum, post.Hash) {
		if err := s.Delete(ctx, key); err != nil {
			logging.Warn("Failed to delete corrupt %s: %v", key, err)
		}
		return 0, fmt.Errorf("%s: %w: got %s, want %s", key, ErrHashMismatch, sum, post.Hash)
	}
	logging.Debug("Stored %s", key)
	return Stored, nil
}
