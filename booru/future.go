package booru

import (
	"context"

	"bugmaschine/booru-mux/model"
)

// Future is the result of an operation running on its own goroutine.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on a new goroutine. ctx is passed through to fn so cancelling
// it aborts the request.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the operation finishes.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Await is Wait bounded by ctx. Returning early does not stop the operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func SearchAsync(ctx context.Context, src Source, q Query) *Future[[]model.Post] {
	return Go(ctx, func(ctx context.Context) ([]model.Post, error) {
		return src.Search(ctx, q)
	})
}

func TagsAsync(ctx context.Context, src Source, page, limit int) *Future[[]model.Tag] {
	return Go(ctx, func(ctx context.Context) ([]model.Tag, error) {
		return src.Tags(ctx, page, limit)
	})
}

func DownloadAsync(ctx context.Context, src Source, post model.Post) *Future[*Asset] {
	return Go(ctx, func(ctx context.Context) (*Asset, error) {
		return src.Download(ctx, post)
	})
}
