package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a Grid into a printable routine document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	pdfTableWidth   = 277.0 // A4 landscape printable width with 10mm margins
	pdfDateColWidth = 32.0
	pdfHeaderHeight = 8.0
	pdfRowHeight    = 12.0
)

// Render creates a landscape PDF with a title, optional metadata lines and
// the merged-cell routine table. Cells spanning several atomic columns are
// drawn as one wide cell, mirroring the interactive grid exactly.
func (e *PDFExporter) Render(grid Grid, title string, meta []HeaderLine) ([]byte, error) {
	if len(grid.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, title, "", 1, "C", false, 0, "")
	}
	for _, line := range meta {
		style := ""
		if line.Bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(0, 6, line.Text, "", 1, "C", false, 0, "")
	}
	if title != "" || len(meta) > 0 {
		pdf.Ln(3)
	}

	colWidth := (pdfTableWidth - pdfDateColWidth) / float64(len(grid.Headers))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(pdfDateColWidth, pdfHeaderHeight, grid.RowHeader, "1", 0, "C", true, 0, "")
	for _, header := range grid.Headers {
		pdf.CellFormat(colWidth, pdfHeaderHeight, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range grid.Rows {
		pdf.CellFormat(pdfDateColWidth, pdfRowHeight, row.Label, "1", 0, "C", false, 0, "")
		for _, cell := range row.Cells {
			width := colWidth * float64(cell.Span)
			pdf.CellFormat(width, pdfRowHeight, cell.Text, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
