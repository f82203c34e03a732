package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a Grid into CSV bytes for spreadsheet import.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes. A cell spanning N columns occupies
// its first column; the remaining N-1 columns are left blank so the file
// keeps one field per atomic time column.
func (e *CSVExporter) Render(grid Grid) ([]byte, error) {
	if len(grid.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := append([]string{grid.RowHeader}, grid.Headers...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range grid.Rows {
		record := make([]string, 0, len(grid.Headers)+1)
		record = append(record, row.Label)
		for _, cell := range row.Cells {
			record = append(record, cell.Text)
			for i := 1; i < cell.Span; i++ {
				record = append(record, "")
			}
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %q spans %d columns, expected %d", row.Label, len(record)-1, len(grid.Headers))
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
