package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ecomm-asset-tools/syndicator/internal/batch"
	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
	"github.com/ecomm-asset-tools/syndicator/internal/download"
	"github.com/ecomm-asset-tools/syndicator/internal/events"
	"github.com/ecomm-asset-tools/syndicator/internal/retailer"
)

type stubSource struct {
	delay time.Duration
}

func (s *stubSource) Assets(ctx context.Context, bmn string, slots []string) (map[string][]catalog.Asset, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return nil, catalog.ErrNotFound
}

func newTestHandler(t *testing.T, source catalog.Source) *Handler {
	t.Helper()
	runner := batch.New(batch.Options{
		Source:   source,
		Executor: download.NewExecutor(time.Second),
	})
	registry := retailer.NewRegistry(
		retailer.NewSobeys(t.TempDir()),
		retailer.NewInstacart(t.TempDir()),
		retailer.NewAmazon(t.TempDir(), nil),
	)
	return New(runner, events.NewBroadcaster(), registry, t.TempDir())
}

func postForm(t *testing.T, h http.HandlerFunc, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/execute", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestExecuteSingleEntry(t *testing.T) {
	h := newTestHandler(t, &stubSource{})

	w := postForm(t, h.HandleExecute, map[string]string{
		"retailer":   "Sobeys",
		"bmn":        "B1",
		"article_id": "A1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success    bool `json:"success"`
		TotalItems int  `json:"total_items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.TotalItems != 1 {
		t.Errorf("response = %+v", resp)
	}
	h.runner.Wait()
}

func TestExecuteMissingRetailerIdentifier(t *testing.T) {
	h := newTestHandler(t, &stubSource{})

	// Instacart saves by GTIN, so a GTIN-less entry must be rejected.
	w := postForm(t, h.HandleExecute, map[string]string{
		"retailer": "Instacart",
		"bmn":      "B1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "gtin") {
		t.Errorf("error should name the missing field: %s", w.Body.String())
	}
}

func TestExecuteUnknownRetailer(t *testing.T) {
	h := newTestHandler(t, &stubSource{})
	w := postForm(t, h.HandleExecute, map[string]string{
		"retailer": "Walmart",
		"bmn":      "B1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestExecuteRejectsWhileRunning(t *testing.T) {
	h := newTestHandler(t, &stubSource{delay: 200 * time.Millisecond})

	first := postForm(t, h.HandleExecute, map[string]string{
		"retailer":   "Sobeys",
		"bmn":        "B1",
		"article_id": "A1",
	})
	if first.Code != http.StatusOK {
		t.Fatalf("first start failed: %s", first.Body.String())
	}

	second := postForm(t, h.HandleExecute, map[string]string{
		"retailer":   "Sobeys",
		"bmn":        "B2",
		"article_id": "A2",
	})
	if second.Code != http.StatusBadRequest {
		t.Fatalf("second start status = %d, want 400", second.Code)
	}

	h.runner.Stop()
	h.runner.Wait()
}

func TestExecuteFileUpload(t *testing.T) {
	h := newTestHandler(t, &stubSource{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("retailer", "Both")
	part, err := mw.CreateFormFile("file", "items.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("BMN,Article ID,GTIN\nB1,A1,G1\nB1,A1,G1\nB2,A2,G2\n"))
	mw.Close()

	req := httptest.NewRequest("POST", "/execute", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.HandleExecute(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		TotalItems int `json:"total_items"`
		Duplicates struct {
			BMNs        []string `json:"bmns"`
			DroppedRows int      `json:"dropped_rows"`
		} `json:"duplicates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", resp.TotalItems)
	}
	if resp.Duplicates.DroppedRows != 1 || len(resp.Duplicates.BMNs) != 1 {
		t.Errorf("Duplicates = %+v", resp.Duplicates)
	}
	h.runner.Wait()
}

func TestExecuteFileMissingColumns(t *testing.T) {
	h := newTestHandler(t, &stubSource{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("retailer", "Sobeys")
	part, _ := mw.CreateFormFile("file", "items.csv")
	part.Write([]byte("BMN\nB1\n"))
	mw.Close()

	req := httptest.NewRequest("POST", "/execute", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.HandleExecute(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Article ID") {
		t.Errorf("error should name the missing column: %s", w.Body.String())
	}
}

func TestStopWithoutRun(t *testing.T) {
	h := newTestHandler(t, &stubSource{})
	req := httptest.NewRequest("POST", "/stop", nil)
	w := httptest.NewRecorder()
	h.HandleStop(w, req)

	var resp struct {
		Stopped bool `json:"stopped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Stopped {
		t.Error("stopped should be false with no active run")
	}
}

func TestStatusSnapshot(t *testing.T) {
	h := newTestHandler(t, &stubSource{})
	req := httptest.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()
	h.HandleStatus(w, req)

	var status batch.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.State != batch.Idle || status.Running {
		t.Errorf("status = %+v, want idle", status)
	}
}

func TestEventsStreamSendsInitialStatus(t *testing.T) {
	h := newTestHandler(t, &stubSource{})

	srv := httptest.NewServer(http.HandlerFunc(h.HandleEvents))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(line) != "event: "+events.NameStatus {
		t.Errorf("first frame = %q, want status_update event", line)
	}
	data, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(data, "data: ") {
		t.Errorf("second line = %q, want data frame", data)
	}
}
