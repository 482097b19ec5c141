package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDownloadFanOut(t *testing.T) {
	payload := []byte("not-really-a-jpeg")
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	dests := []string{
		filepath.Join(dir, "B0AAA.MAIN.jpg"),
		filepath.Join(dir, "B0BBB.MAIN.jpg"),
		filepath.Join(dir, "nested", "B0CCC.MAIN.jpg"),
	}

	executor := NewExecutor(5 * time.Second)
	if err := executor.Download(context.Background(), server.URL, dests); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	if hits != 1 {
		t.Errorf("Source must be fetched exactly once for fan-out, got %d fetches", hits)
	}
	for _, dest := range dests {
		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("Missing destination copy %s: %v", dest, err)
		}
		if !bytes.Equal(data, payload) {
			t.Errorf("Destination %s has different bytes", dest)
		}
	}
}

func TestDownloadOverwrites(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "777-main.jpg")
	if err := os.WriteFile(dest, []byte("stale bytes from a previous run"), 0644); err != nil {
		t.Fatal(err)
	}

	executor := NewExecutor(5 * time.Second)
	if err := executor.Download(context.Background(), server.URL, []string{dest}); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "new bytes" {
		t.Errorf("Expected unconditional overwrite, got %q", data)
	}
}

func TestDownloadErrorType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	executor := NewExecutor(5 * time.Second)
	err := executor.Download(context.Background(), server.URL, []string{filepath.Join(t.TempDir(), "x.jpg")})

	var dlErr *Error
	if !errors.As(err, &dlErr) {
		t.Fatalf("Expected a download Error, got %v", err)
	}
	if dlErr.URL != server.URL {
		t.Errorf("Error should carry the source URL, got %s", dlErr.URL)
	}
}

func TestDownloadLeavesNoTempFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "a.jpg")
	executor := NewExecutor(5 * time.Second)
	if err := executor.Download(context.Background(), server.URL, []string{dest}); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the final file in the destination dir, found %d entries", len(entries))
	}
}
