// Package download performs the byte transfer for selected assets and
// persists them to their resolved destination paths.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Error is a per-asset transfer failure. It never aborts the batch: the
// failed asset is recorded and processing continues.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Executor transfers asset bytes over HTTP and writes every destination
// copy. Safe for concurrent use.
type Executor struct {
	httpClient *http.Client
}

func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Executor{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch fetches the source bytes exactly once. Fan-out targets share one
// fetch; see Write.
func (e *Executor) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return data, nil
}

// Write persists one copy of the data per destination path, creating
// directories on demand and overwriting unconditionally — re-runs are
// expected.
func (e *Executor) Write(data []byte, dests []string) error {
	for _, dest := range dests {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("failed to create destination directory: %w", err)
		}
		if err := writeFileAtomic(dest, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
		slog.Debug("Wrote asset file", "path", dest, "bytes", len(data))
	}
	return nil
}

// Download is Fetch + Write: transfer the source once and persist every
// destination copy.
func (e *Executor) Download(ctx context.Context, url string, dests []string) error {
	data, err := e.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return e.Write(data, dests)
}

// writeFileAtomic writes via a temp file and rename so a crashed run
// never leaves a truncated image for the retailer pipeline to pick up.
func writeFileAtomic(dest string, data []byte) error {
	tempPath := dest + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}
