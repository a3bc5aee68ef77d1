package dualreader

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"
)

func TestDualReader(t *testing.T) {
	input := make([]byte, 8*1024*1024)

	_, err := rand.Read(input)
	if err != nil {
		t.Fatalf("Failed to generate random input: %v", err)
	}
	source := io.NopCloser(bytes.NewReader(input))

	dr := NewDualReader(source)
	r1, r2 := dr.Readers()

	var buf1, buf2 bytes.Buffer
	done := make(chan struct{})

	go func() {
		_, err := io.Copy(&buf1, r1)
		if err != nil {
			t.Errorf("Reader 1 copy error: %v", err)
		}
		done <- struct{}{}
	}()

	go func() {
		_, err := io.Copy(&buf2, r2)
		if err != nil {
			t.Errorf("Reader 2 copy error: %v", err)
		}
		done <- struct{}{}
	}()

	// wait for both readers
	<-done
	<-done

	if !bytes.Equal(buf1.Bytes(), input) {
		t.Errorf("Reader 1 output mismatch: got %d bytes, want %d", buf1.Len(), len(input))
	}
	if !bytes.Equal(buf2.Bytes(), input) {
		t.Errorf("Reader 2 output mismatch: got %d bytes, want %d", buf2.Len(), len(input))
	}
}

func TestDualReaderOneSideClosed(t *testing.T) {
	input := bytes.Repeat([]byte("booru"), 100000)
	r1, r2 := NewDualReader(io.NopCloser(bytes.NewReader(input))).Readers()

	// the first consumer gives up right away
	r1.Close()

	got, err := io.ReadAll(r2)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Errorf("got %d bytes, want %d", len(got), len(input))
	}
}

type failingReader struct {
	data []byte
	err  error
	sent bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, f.data), nil
	}
	return 0, f.err
}

func (f *failingReader) Close() error { return nil }

func TestDualReaderPropagatesError(t *testing.T) {
	boom := errors.New("connection reset")
	r1, r2 := NewDualReader(&failingReader{data: []byte("partial"), err: boom}).Readers()

	errs := make(chan error, 2)
	for _, r := range []io.Reader{r1, r2} {
		go func(r io.Reader) {
			_, err := io.ReadAll(r)
			errs <- err
		}(r)
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; !errors.Is(err, boom) {
			t.Errorf("read error = %v, want %v", err, boom)
		}
	}
}
