package identifiers

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

// AllowedExtension reports whether the upload surface accepts this file.
func AllowedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".csv", ".xlsx", ".xls", ".jsonl", ".parquet":
		return true
	default:
		return false
	}
}

// ParseFile loads an identifier table from disk, sniffing the format from
// the file extension, and runs Parse over it.
func ParseFile(path string, required []string) ([]Record, DuplicateReport, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		header []string
		rows   [][]string
		err    error
	)
	switch ext {
	case ".csv", ".txt":
		header, rows, err = readCSV(path)
	case ".xlsx", ".xls":
		header, rows, err = readXLSX(path)
	case ".jsonl":
		header, rows, err = readJSONL(path)
	case ".parquet":
		header, rows, err = readParquet(path)
	default:
		return nil, DuplicateReport{}, fmt.Errorf("unsupported file format: %s (supported: .csv, .txt, .xlsx, .xls, .jsonl, .parquet)", ext)
	}
	if err != nil {
		return nil, DuplicateReport{}, err
	}

	return Parse(header, rows, required)
}

func readCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

func readXLSX(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close spreadsheet", "path", path, "error", err)
		}
	}()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

// readJSONL reads one identifier object per line. The header is the union
// of keys seen across all lines so the missing-column check works the
// same as for tabular formats.
func readJSONL(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	keySet := make(map[string]bool)
	var objects []map[string]any

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		for k := range obj {
			keySet[k] = true
		}
		objects = append(objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading input: %w", err)
	}

	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, 0, len(objects))
	for _, obj := range objects {
		row := make([]string, len(header))
		for i, k := range header {
			if v, ok := obj[k]; ok && v != nil {
				switch val := v.(type) {
				case string:
					row[i] = val
				case float64:
					// Identifiers are numeric in some exports; render
					// without a fractional part.
					row[i] = strings.TrimSuffix(fmt.Sprintf("%.0f", val), ".")
				default:
					row[i] = fmt.Sprint(val)
				}
			}
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

// parquetRow covers both header spellings seen in real exports.
type parquetRow struct {
	BMN          string `parquet:"BMN,optional"`
	ArticleID    string `parquet:"Article ID,optional"`
	ArticleIDAlt string `parquet:"ArticleID,optional"`
	GTIN         string `parquet:"GTIN,optional"`
}

func readParquet(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	// The header comes from the file's own schema so unknown exports fail
	// the missing-column check instead of yielding empty records.
	var header []string
	for _, field := range pf.Schema().Fields() {
		header = append(header, field.Name())
	}

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	var rows [][]string
	batch := make([]parquetRow, 128)
	for {
		n, err := reader.Read(batch)
		for _, r := range batch[:n] {
			articleID := r.ArticleID
			if articleID == "" {
				articleID = r.ArticleIDAlt
			}
			rows = append(rows, rowFor(header, r.BMN, articleID, r.GTIN))
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Read parquet identifier list", "path", path, "rows", len(rows))
	return header, rows, nil
}

// rowFor lays parsed values out in header order so Parse can index them
// like any other tabular source.
func rowFor(header []string, bmn, articleID, gtin string) []string {
	row := make([]string, len(header))
	for i, name := range header {
		switch normalizeColumn(name) {
		case ColumnBMN:
			row[i] = bmn
		case ColumnArticleID:
			row[i] = articleID
		case ColumnGTIN:
			row[i] = gtin
		}
	}
	return row
}
