package fetcher

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Format identifies a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks the parser for a file from its extension, falling back
// to content sniffing. XLSX workbooks are ZIP archives.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// Table is a parsed tabular file: a header row plus data rows. Every row has
// exactly len(Header) cells.
type Table struct {
	Name     string
	Format   Format
	Encoding string
	Header   []string
	Rows     [][]string
}

// Index returns the position of a header, or -1.
func (t *Table) Index(col string) int {
	return slices.Index(t.Header, col)
}

// Column returns every value of the named column.
func (t *Table) Column(col string) []string {
	i := t.Index(col)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// ReadTable parses a CSV or XLSX file. The first non-blank row is the header.
func ReadTable(ctx context.Context, name string, data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, eris.Errorf("table: %s is empty", name)
	}

	t := &Table{Name: name, Format: DetectFormat(name, data)}

	var rows [][]string
	switch t.Format {
	case FormatXLSX:
		r, err := ReadXLSX(data, XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "table: %s", name)
		}
		rows = r
	default:
		text, enc, err := DecodeText(data)
		if err != nil {
			return nil, eris.Wrapf(err, "table: %s", name)
		}
		t.Encoding = enc
		r, err := ReadCSV(ctx, text)
		if err != nil {
			return nil, eris.Wrapf(err, "table: %s", name)
		}
		rows = r
	}

	rows = slices.DeleteFunc(rows, blankRow)
	if len(rows) == 0 {
		return nil, eris.Errorf("table: %s has no header row", name)
	}

	t.Header = dedupeHeader(rows[0])
	t.Rows = make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		t.Rows = append(t.Rows, fitRow(row, len(t.Header)))
	}
	return t, nil
}

// dedupeHeader trims header cells and suffixes duplicates with _2, _3, ...
func dedupeHeader(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = "column"
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = h + "_" + strconv.Itoa(n)
		}
		out[i] = h
	}
	return out
}

func fitRow(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
