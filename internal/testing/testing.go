// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/cwlog/internal/models"
)

// ScriptedSource is a test double for [source.Source] that replays a fixed
// sequence of chunks, then io.EOF (or Err when set). With Wait it blocks on
// the context after the script runs out, like a live tail with no new output.
type ScriptedSource struct {
	Chunks []string
	Err    error
	Wait   bool
	next   int
}

func (s *ScriptedSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.next >= len(s.Chunks) {
		if s.Err != nil {
			return "", s.Err
		}
		if s.Wait {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "", io.EOF
	}
	chunk := s.Chunks[s.next]
	s.next++
	return chunk, nil
}

// MemoryRunStore is an in-memory [source.RunStore] recording every call.
type MemoryRunStore struct {
	mu      sync.Mutex
	Created []*models.Run
	Updated []*models.Run
	FailOn  string // "create" or "update" forces an error
}

func (m *MemoryRunStore) Create(run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn == "create" {
		return errors.New("create failed")
	}
	m.Created = append(m.Created, run)
	return nil
}

func (m *MemoryRunStore) Update(run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn == "update" {
		return errors.New("update failed")
	}
	m.Updated = append(m.Updated, run)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
