package booru

import (
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"

	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/mapping"

	"github.com/andybalholm/brotli"
)

// Version is reported in the default user agent.
const Version = "0.3.0"

// DefaultUserAgent identifies this client to image boards, most of which
// reject requests without one.
const DefaultUserAgent = "booru-mux/" + Version + " (https://github.com/bugmaschine/booru-mux)"

// Response is an upstream answer with its body already decompressed.
type Response struct {
	StatusCode    int
	ContentType   string
	ContentLength int64 // -1 when unknown
	Body          io.ReadCloser
}

// Transport performs a single GET request. Implementations must be safe for
// concurrent use.
type Transport interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// HTTPTransport is the default Transport backed by net/http.
type HTTPTransport struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPTransport(userAgent string) *HTTPTransport {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPTransport{Client: &http.Client{}, UserAgent: userAgent}
}

func (t *HTTPTransport) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", t.UserAgent)
	req.Header.Set("Accept", "application/json, */*")
	// asking for an encoding ourselves turns off net/http's transparent gzip,
	// so every encoding is decoded below
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	body, err := decodeBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	length := resp.ContentLength
	if body != resp.Body {
		length = -1
	}
	return &Response{
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: length,
		Body:          body,
	}, nil
}

// https://stackoverflow.com/questions/13130341/reading-gzipped-http-response-in-go
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch encoding := resp.Header.Get("Content-Encoding"); encoding {
	case "gzip":
		logging.Debug("Server sent gzip compressed response")
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decompression failed: %w", err)
		}
		return &decodedBody{Reader: r, closers: []io.Closer{r, resp.Body}}, nil

	case "deflate":
		logging.Debug("Server sent deflate compressed response")
		r := flate.NewReader(resp.Body)
		return &decodedBody{Reader: r, closers: []io.Closer{r, resp.Body}}, nil

	case "compress":
		logging.Debug("Server sent standard compressed response")
		r, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("compress decompression failed: %w", err)
		}
		return &decodedBody{Reader: r, closers: []io.Closer{r, resp.Body}}, nil

	case "br":
		logging.Debug("Server sent brotli compressed response")
		return &decodedBody{Reader: brotli.NewReader(resp.Body), closers: []io.Closer{resp.Body}}, nil

	case "", "identity":
		return resp.Body, nil

	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (d *decodedBody) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Fetch performs a GET and returns the whole body of a 2xx response. A non-2xx
// response is a *mapping.ServerError when the body explains the failure and a
// *StatusError otherwise.
func Fetch(ctx context.Context, t Transport, url string) ([]byte, error) {
	resp, err := t.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if serverErr := mapping.ParseServerError(body, resp.StatusCode); serverErr != nil {
			return nil, serverErr
		}
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return body, nil
}
