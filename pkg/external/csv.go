package external

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/biomarker-range-server/internal/domain"
)

// DecodeCSV reads a header-led CSV document into raw rows keyed by the trimmed header names.
// Quoting is lenient and rows may be ragged: cells past the header are ignored and missing
// trailing cells are simply absent from the row. A UTF-8 byte order mark is skipped.
func DecodeCSV(r io.Reader) ([]domain.RawRow, error) {
	br := bufio.NewReader(r)

	// Skip UTF-8 BOM if present
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read CSV header: empty document")
		}
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		// first occurrence of a duplicated header wins
		if seen[name] {
			name = ""
		}
		seen[name] = true
		columns[i] = name
	}

	var rows []domain.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record %d: %w", len(rows)+1, err)
		}

		row := make(domain.RawRow, len(columns))
		for i, cell := range record {
			if i >= len(columns) {
				break
			}
			if columns[i] == "" {
				continue
			}
			row[columns[i]] = cell
		}
		rows = append(rows, row)
	}

	return rows, nil
}
