// Package dualreader splits one stream into two readers that can be consumed
// concurrently, for example to upload a file while serving it.
package dualreader

import (
	"errors"
	"io"
	"sync"

	"bugmaschine/booru-mux/logging"
)

var errBothClosed = errors.New("dualreader: both readers closed")

type DualReader struct {
	r1 *io.PipeReader
	r2 *io.PipeReader
}

// NewDualReader starts copying source into both readers and closes source
// when done. A read error on source is returned by both readers. Closing one
// reader early does not stall the other.
func NewDualReader(source io.ReadCloser) *DualReader {
	pr1, pw1 := io.Pipe()
	pr2, pw2 := io.Pipe()

	go func() {
		defer source.Close()

		w := &splitWriter{writers: []*io.PipeWriter{pw1, pw2}}
		_, err := io.Copy(w, source)
		if err != nil && !errors.Is(err, errBothClosed) {
			logging.Warn("[DualReader] error copying: %v", err)
		} else {
			err = nil
		}
		// a nil error turns into io.EOF on the reading side
		pw1.CloseWithError(err)
		pw2.CloseWithError(err)
	}()

	return &DualReader{
		r1: pr1,
		r2: pr2,
	}
}

func (d *DualReader) Readers() (io.ReadCloser, io.ReadCloser) {
	return d.r1, d.r2
}

// splitWriter writes to every pipe whose reader is still open.
type splitWriter struct {
	mu      sync.Mutex
	writers []*io.PipeWriter
}

func (s *splitWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open := s.writers[:0]
	for _, w := range s.writers {
		if _, err := w.Write(p); err != nil {
			if errors.Is(err, io.ErrClosedPipe) {
				continue
			}
			return 0, err
		}
		open = append(open, w)
	}
	s.writers = open
	if len(s.writers) == 0 {
		return 0, errBothClosed
	}
	return len(p), nil
}
