package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source reads dataset files relative to a base location.
type Source interface {
	// Read returns the whole content of the named file.
	Read(ctx context.Context, name string) ([]byte, error)
	// Location is the full path or URL the file is expected at, for messages.
	Location(name string) string
}

// NewSource returns an HTTP source for http(s) base paths and a directory
// source otherwise.
func NewSource(base string, timeout time.Duration, logger *slog.Logger) Source {
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return NewHTTPSource(base, timeout, logger)
	}
	return DirSource{Root: base}
}

// DirSource reads files from a local directory.
type DirSource struct {
	Root string
}

func (d DirSource) Location(name string) string {
	return filepath.Join(d.Root, filepath.FromSlash(name))
}

func (d DirSource) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(d.Location(name))
}

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// HTTPSource fetches files from a static-asset base URL.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPSource creates a source whose requests are bounded by timeout.
func NewHTTPSource(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (s *HTTPSource) Location(name string) string {
	return s.baseURL + "/" + strings.TrimLeft(name, "/")
}

func (s *HTTPSource) Read(ctx context.Context, name string) ([]byte, error) {
	u := s.Location(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("fetch %s: status %d: %s", name, resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	s.logger.Debug("dataset fetched", "url", u, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}
