package identifiers

import (
	"fmt"
	"log/slog"
	"strings"
)

// Canonical input column names. Header matching is case-insensitive and
// whitespace-tolerant, so "ArticleID" and "Article ID" are the same
// column.
const (
	ColumnBMN       = "BMN"
	ColumnArticleID = "Article ID"
	ColumnGTIN      = "GTIN"
)

// Record is one parsed input row. Immutable after parsing; which of the
// optional identifiers must be present depends on the retailer mode.
type Record struct {
	BMN       string `json:"bmn"`
	ArticleID string `json:"article_id,omitempty"`
	GTIN      string `json:"gtin,omitempty"`
}

// DuplicateReport is diagnostic output returned alongside the clean
// record list. Values are reported in first-seen order; a value occurring
// on more than one row appears exactly once.
type DuplicateReport struct {
	BMNs       []string `json:"duplicate_bmns"`
	ArticleIDs []string `json:"duplicate_article_ids"`
	GTINs      []string `json:"duplicate_gtins"`

	// DroppedRows counts input rows discarded because their BMN was
	// already seen: rows_with_BMN - unique_BMNs.
	DroppedRows int `json:"dropped_rows"`
}

// MissingColumnsError reports which required identifier columns the input
// table lacks for the chosen retailer mode.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("input file is missing required columns: %s", strings.Join(e.Columns, ", "))
}

// normalizeColumn maps a raw header cell to its canonical column name, or
// "" if the column is not one we recognize.
func normalizeColumn(name string) string {
	collapsed := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	switch collapsed {
	case "bmn":
		return ColumnBMN
	case "articleid":
		return ColumnArticleID
	case "gtin":
		return ColumnGTIN
	default:
		return ""
	}
}

// Parse turns a raw table into a deduplicated list of identifier records.
// The required slice names the canonical columns the retailer mode needs;
// BMN is always required. Rows with an empty or "nan" BMN are silently
// dropped, later rows repeating an already-seen BMN are dropped and
// counted, and duplicate values in any identifier column are reported in
// the DuplicateReport.
func Parse(header []string, rows [][]string, required []string) ([]Record, DuplicateReport, error) {
	cols := make(map[string]int)
	for i, name := range header {
		if canonical := normalizeColumn(name); canonical != "" {
			if _, exists := cols[canonical]; !exists {
				cols[canonical] = i
			}
		}
	}

	var missing []string
	for _, name := range append([]string{ColumnBMN}, required...) {
		if _, ok := cols[name]; !ok && !contains(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, DuplicateReport{}, &MissingColumnsError{Columns: missing}
	}

	cell := func(row []string, column string) string {
		idx, ok := cols[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var (
		records  []Record
		report   DuplicateReport
		seenBMNs = make(map[string]bool)
		counters = map[string]*dupCounter{
			ColumnBMN:       newDupCounter(),
			ColumnArticleID: newDupCounter(),
			ColumnGTIN:      newDupCounter(),
		}
	)

	for _, row := range rows {
		bmn := cell(row, ColumnBMN)
		if bmn == "" || strings.EqualFold(bmn, "nan") {
			continue
		}

		counters[ColumnBMN].add(bmn)
		counters[ColumnArticleID].add(cell(row, ColumnArticleID))
		counters[ColumnGTIN].add(cell(row, ColumnGTIN))

		if seenBMNs[bmn] {
			report.DroppedRows++
			continue
		}
		seenBMNs[bmn] = true

		records = append(records, Record{
			BMN:       bmn,
			ArticleID: cell(row, ColumnArticleID),
			GTIN:      cell(row, ColumnGTIN),
		})
	}

	report.BMNs = counters[ColumnBMN].duplicates()
	report.ArticleIDs = counters[ColumnArticleID].duplicates()
	report.GTINs = counters[ColumnGTIN].duplicates()

	slog.Info("Parsed identifier list",
		"unique", len(records),
		"dropped_duplicate_rows", report.DroppedRows,
		"duplicate_bmns", len(report.BMNs))

	return records, report, nil
}

// dupCounter tracks how often each value occurs, preserving first-seen
// order for reporting.
type dupCounter struct {
	counts map[string]int
	order  []string
}

func newDupCounter() *dupCounter {
	return &dupCounter{counts: make(map[string]int)}
}

func (d *dupCounter) add(value string) {
	if value == "" || strings.EqualFold(value, "nan") {
		return
	}
	if d.counts[value] == 0 {
		d.order = append(d.order, value)
	}
	d.counts[value]++
}

func (d *dupCounter) duplicates() []string {
	var dups []string
	for _, v := range d.order {
		if d.counts[v] > 1 {
			dups = append(dups, v)
		}
	}
	return dups
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
