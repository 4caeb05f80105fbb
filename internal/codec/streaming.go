package codec

import (
	"io"
	"os"

	"github.com/smallnest/ringbuffer"

	"github.com/wavecraft/wavecraft/internal/errors"
)

const streamBufferSize = 1 << 20 // 1 MiB

// progressReader decouples the blocking disk read performed by a background
// goroutine from the foreground decoder, so Document.Load's 0.0..0.2
// "loading" progress band reflects bytes actually pulled off disk rather
// than an indeterminate single read() call.
type progressReader struct {
	ring     *ringbuffer.RingBuffer
	total    int64
	consumed int64
	readErr  chan error
}

// newProgressReader launches a goroutine copying f into a bounded ring
// buffer; Read drains that buffer, and Fraction reports how much of the
// file has been consumed so far.
func newProgressReader(f *os.File) (*progressReader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryFileIO).Build()
	}

	ring := ringbuffer.New(streamBufferSize)
	ring.SetBlocking(true)

	pr := &progressReader{ring: ring, total: info.Size(), readErr: make(chan error, 1)}
	go func() {
		_, err := io.Copy(ring, f)
		_ = ring.CloseWriter()
		pr.readErr <- err
	}()
	return pr, nil
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.ring.Read(p)
	pr.consumed += int64(n)
	if err == io.EOF {
		if copyErr := <-pr.readErr; copyErr != nil {
			return n, copyErr
		}
	}
	return n, err
}

// Fraction returns bytes consumed over total file size, in [0,1].
func (pr *progressReader) Fraction() float64 {
	if pr.total == 0 {
		return 1
	}
	f := float64(pr.consumed) / float64(pr.total)
	if f > 1 {
		f = 1
	}
	return f
}
