package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DefaultChunkSize is the replay chunk size for file and reader sources.
// Deliberately small enough that JSON tokens regularly straddle boundaries.
const DefaultChunkSize = 512

// ReaderSource reads fixed-size chunks from an [io.Reader].
type ReaderSource struct {
	r   io.Reader
	buf []byte
}

// NewReaderSource wraps r, yielding chunks of at most chunkSize bytes.
func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ReaderSource{r: r, buf: make([]byte, chunkSize)}
}

// Next reads one chunk, honoring context cancellation between reads.
func (s *ReaderSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	n, err := s.r.Read(s.buf)
	if n > 0 {
		return string(s.buf[:n]), nil
	}
	if err == nil {
		err = io.EOF
	}
	return "", err
}

// FileSource replays a captured log file in fixed-size chunks.
type FileSource struct {
	*ReaderSource
	f *os.File
}

// NewFileSource opens path for chunked replay.
func NewFileSource(path string, chunkSize int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}

	return &FileSource{ReaderSource: NewReaderSource(f, chunkSize), f: f}, nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}
