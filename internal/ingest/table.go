package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a parsed sheet with a header row.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// zipMagic starts every XLSX file.
var zipMagic = []byte("PK\x03\x04")

// ReadTable parses raw as XLSX when name ends in .xlsx or the content is a
// zip archive, otherwise as CSV. The first row is the header.
func ReadTable(ctx context.Context, name string, raw []byte) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(name), ".xlsx") || bytes.HasPrefix(raw, zipMagic) {
		rows, err = ReadXLSX(raw)
	} else {
		rows, err = ReadCSV(ctx, raw)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "%s: file is empty", displayName(name))
	}

	t := &Table{Header: rows[0], Rows: rows[1:], index: make(map[string]int, len(rows[0]))}
	for i, col := range t.Header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}
	return t, nil
}

// ReadTableFile reads and parses the file at path.
func ReadTableFile(ctx context.Context, path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return ReadTable(ctx, path, raw)
}

// Missing returns the columns absent from the header.
func (t *Table) Missing(columns ...string) []string {
	var missing []string
	for _, col := range columns {
		if _, ok := t.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Value returns the trimmed cell of row in column, or "" when either is
// absent.
func (t *Table) Value(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func displayName(name string) string {
	if name == "" {
		return "upload"
	}
	return filepath.Base(name)
}
