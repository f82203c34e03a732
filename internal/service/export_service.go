package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bou-cse/routines-api/internal/models"
	"github.com/bou-cse/routines-api/internal/timetable"
	appErrors "github.com/bou-cse/routines-api/pkg/errors"
	"github.com/bou-cse/routines-api/pkg/export"
)

type exportSessionReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.SessionDetail, error)
}

type csvRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

type pdfRenderer interface {
	Render(grid export.Grid, title string, meta []export.HeaderLine) ([]byte, error)
}

// ExportFile is one rendered routine document ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a term's routine grid as a downloadable CSV or
// PDF. Both formats come from the same merged-cell grid the JSON view
// uses, so the three surfaces never disagree.
type ExportService struct {
	terms    conflictTermReader
	sessions exportSessionReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(terms conflictTermReader, sessions exportSessionReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{terms: terms, sessions: sessions, csv: csv, pdf: pdf, logger: logger}
}

// RoutineCSV renders the routine table as CSV. Merged cells repeat their
// text once and pad the remaining columns with blanks.
func (s *ExportService) RoutineCSV(ctx context.Context, termID string) (*ExportFile, error) {
	term, grid, err := s.loadGrid(ctx, termID)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(exportGrid(grid))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV")
	}
	return &ExportFile{
		Filename:    exportFilename(term, "csv"),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

// RoutinePDF renders the printable routine with the term's contact
// metadata in the page header.
func (s *ExportService) RoutinePDF(ctx context.Context, termID string) (*ExportFile, error) {
	term, grid, err := s.loadGrid(ctx, termID)
	if err != nil {
		return nil, err
	}
	data, err := s.pdf.Render(exportGrid(grid), pdfTitle(term), pdfHeaderLines(term))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF")
	}
	return &ExportFile{
		Filename:    exportFilename(term, "pdf"),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *ExportService) loadGrid(ctx context.Context, termID string) (*models.Term, timetable.Grid, error) {
	if termID == "" {
		return nil, timetable.Grid{}, appErrors.Clone(appErrors.ErrValidation, "term id is required")
	}
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, timetable.Grid{}, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, timetable.Grid{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	list, err := s.sessions.ListByTerm(ctx, termID)
	if err != nil {
		return nil, timetable.Grid{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	grid, err := buildTermGrid(term, list, s.logger)
	if err != nil {
		return nil, timetable.Grid{}, err
	}
	return term, grid, nil
}

// exportGrid flattens the timetable grid into the renderer-agnostic
// table both exporters consume.
func exportGrid(grid timetable.Grid) export.Grid {
	out := export.Grid{RowHeader: "Date / Time", Headers: grid.HeaderLabels()}
	for _, row := range grid.Rows {
		line := export.Row{Label: fmt.Sprintf("%s (%s)", row.Date.Format(models.DateLayout), titleCase(row.Weekday))}
		for _, cell := range row.Cells {
			line.Cells = append(line.Cells, export.Cell{Text: cellText(cell), Span: cell.Span})
		}
		out.Rows = append(out.Rows, line)
	}
	return out
}

func cellText(cell timetable.Cell) string {
	switch cell.Kind {
	case timetable.CellSession:
		parts := make([]string, 0, len(cell.Sessions))
		for _, s := range cell.Sessions {
			parts = append(parts, sessionText(s))
		}
		return strings.Join(parts, " / ")
	case timetable.CellLunch:
		return "Lunch Break"
	case timetable.CellMakeup:
		return "Makeup"
	default:
		return ""
	}
}

func sessionText(s timetable.Session) string {
	name := s.TeacherShortName
	if name == "" {
		name = s.TeacherName
	}
	if name == "" {
		return s.CourseCode
	}
	return fmt.Sprintf("%s (%s)", s.CourseCode, name)
}

func pdfTitle(term *models.Term) string {
	name := term.Name
	if term.FullName != nil && *term.FullName != "" {
		name = *term.FullName
	}
	return fmt.Sprintf("Class Routine - %s", name)
}

func pdfHeaderLines(term *models.Term) []export.HeaderLine {
	lines := make([]export.HeaderLine, 0, 4)
	if term.Session != nil && *term.Session != "" {
		lines = append(lines, export.HeaderLine{Text: fmt.Sprintf("Session: %s", *term.Session)})
	}
	if term.StudyCenter != nil && *term.StudyCenter != "" {
		lines = append(lines, export.HeaderLine{Text: fmt.Sprintf("Study Center: %s", *term.StudyCenter)})
	}
	if term.ContactPerson != nil && *term.ContactPerson != "" {
		contact := *term.ContactPerson
		if term.ContactDesignation != nil && *term.ContactDesignation != "" {
			contact = fmt.Sprintf("%s, %s", contact, *term.ContactDesignation)
		}
		lines = append(lines, export.HeaderLine{Text: fmt.Sprintf("Contact: %s", contact), Bold: true})
	}
	var reach []string
	if term.ContactPhone != nil && *term.ContactPhone != "" {
		reach = append(reach, *term.ContactPhone)
	}
	if term.ContactEmail != nil && *term.ContactEmail != "" {
		reach = append(reach, *term.ContactEmail)
	}
	if len(reach) > 0 {
		lines = append(lines, export.HeaderLine{Text: strings.Join(reach, " | ")})
	}
	return lines
}

func exportFilename(term *models.Term, ext string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(term.Name), " ", "_"))
	if slug == "" {
		slug = "term"
	}
	return fmt.Sprintf("routine_%s.%s", slug, ext)
}

func titleCase(upper string) string {
	if upper == "" {
		return upper
	}
	lower := strings.ToLower(upper)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
