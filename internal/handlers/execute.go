package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ecomm-asset-tools/syndicator/internal/batch"
	"github.com/ecomm-asset-tools/syndicator/internal/identifiers"
	"github.com/ecomm-asset-tools/syndicator/internal/retailer"
)

type executeResponse struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	TotalItems int              `json:"total_items"`
	Duplicates duplicateSummary `json:"duplicates"`
}

type duplicateSummary struct {
	BMNs        []string `json:"bmns"`
	ArticleIDs  []string `json:"article_ids"`
	GTINs       []string `json:"gtins"`
	DroppedRows int      `json:"dropped_rows"`
}

// HandleExecute starts a batch from either an uploaded identifier file
// or a single manually entered item.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Identifier files are small; 20MB leaves generous headroom.
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		h.writeError(w, "Invalid form data: "+err.Error(), http.StatusBadRequest)
		return
	}

	selection := r.FormValue("retailer")
	if selection == "" {
		h.writeError(w, "retailer is required", http.StatusBadRequest)
		return
	}
	rules, err := h.registry.For(selection)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	required := retailer.RequiredColumns(rules)

	var (
		items  []identifiers.Record
		report identifiers.DuplicateReport
	)
	if _, _, fileErr := r.FormFile("file"); fileErr == nil {
		items, report, err = h.parseUpload(r, required)
	} else {
		items, err = parseSingleEntry(r, rules)
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(items) == 0 {
		h.writeError(w, "No valid items to process", http.StatusBadRequest)
		return
	}

	if err := h.runner.Start(items, rules); err != nil {
		if errors.Is(err, batch.ErrAlreadyRunning) {
			h.writeError(w, "A download batch is already running", http.StatusBadRequest)
			return
		}
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, executeResponse{
		Success:    true,
		Message:    fmt.Sprintf("Started download batch for %d item(s)", len(items)),
		TotalItems: len(items),
		Duplicates: duplicateSummary{
			BMNs:        emptyIfNil(report.BMNs),
			ArticleIDs:  emptyIfNil(report.ArticleIDs),
			GTINs:       emptyIfNil(report.GTINs),
			DroppedRows: report.DroppedRows,
		},
	})
}

// parseUpload spools the uploaded identifier file to the upload
// directory, parses it, and removes the spool file.
func (h *Handler) parseUpload(r *http.Request, required []string) ([]identifiers.Record, identifiers.DuplicateReport, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, identifiers.DuplicateReport{}, fmt.Errorf("unable to read file: %w", err)
	}
	defer file.Close()

	if !identifiers.AllowedExtension(header.Filename) {
		return nil, identifiers.DuplicateReport{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(header.Filename))
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return nil, identifiers.DuplicateReport{}, fmt.Errorf("unable to create upload directory: %w", err)
	}

	// The parsers work on paths, so spool to disk under a collision-free
	// name and clean up once parsed.
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	path := filepath.Join(h.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return nil, identifiers.DuplicateReport{}, fmt.Errorf("unable to save upload: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, identifiers.DuplicateReport{}, fmt.Errorf("unable to save upload: %w", err)
	}
	dst.Close()
	defer os.Remove(path)

	return identifiers.ParseFile(path, required)
}

// parseSingleEntry builds a one-item batch from form fields, checking
// that every identifier the selected retailers need is present.
func parseSingleEntry(r *http.Request, rules []retailer.Rule) ([]identifiers.Record, error) {
	rec := identifiers.Record{
		BMN:       strings.TrimSpace(r.FormValue("bmn")),
		ArticleID: strings.TrimSpace(r.FormValue("article_id")),
		GTIN:      strings.TrimSpace(r.FormValue("gtin")),
	}
	if rec.BMN == "" {
		return nil, errors.New("bmn is required")
	}

	var missing []string
	for _, col := range retailer.RequiredColumns(rules) {
		switch col {
		case identifiers.ColumnArticleID:
			if rec.ArticleID == "" {
				missing = append(missing, "article_id")
			}
		case identifiers.ColumnGTIN:
			if rec.GTIN == "" {
				missing = append(missing, "gtin")
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required field(s) for selected retailer(s): %s", strings.Join(missing, ", "))
	}

	return []identifiers.Record{rec}, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
