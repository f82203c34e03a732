package export

// Cell is one rendered cell spanning one or more header columns.
type Cell struct {
	Text string
	Span int
}

// Row is one dated line of the routine table.
type Row struct {
	Label string
	Cells []Cell
}

// Grid is the renderer-agnostic merged-cell table consumed by every
// exporter. RowHeader labels the leading date column; Headers label the
// time columns.
type Grid struct {
	RowHeader string
	Headers   []string
	Rows      []Row
}

// HeaderLine describes one line of metadata printed above the table.
type HeaderLine struct {
	Text string
	Bold bool
}
