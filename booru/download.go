package booru

import (
	"context"
	"fmt"

	"bugmaschine/booru-mux/model"
)

// FetchAsset requests post.ResourceURL through t. Posts without a resource
// url, which some sources hand out for restricted content, are unsupported.
func FetchAsset(ctx context.Context, t Transport, source string, post model.Post) (*Asset, error) {
	if post.ResourceURL == "" {
		return nil, Unsupported(source, OpDownload, fmt.Sprintf("post %d has no resource url", post.ID))
	}

	resp, err := t.Get(ctx, post.ResourceURL)
	if err != nil {
		return nil, Wrap(source, OpDownload, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, Wrap(source, OpDownload, &StatusError{URL: post.ResourceURL, StatusCode: resp.StatusCode})
	}
	return &Asset{Body: resp.Body, ContentType: resp.ContentType, Size: resp.ContentLength}, nil
}
