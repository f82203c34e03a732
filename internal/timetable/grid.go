package timetable

import (
	"sort"
	"time"
)

// CellKind discriminates grid cell content.
type CellKind string

const (
	CellEmpty   CellKind = "EMPTY"
	CellSession CellKind = "SESSION"
	CellLunch   CellKind = "LUNCH"
	CellMakeup  CellKind = "MAKEUP"
)

// Session is one dated class occurrence placed on the grid.
type Session struct {
	Date             time.Time
	Weekday          string
	CourseCode       string
	CourseName       string
	TeacherName      string
	TeacherShortName string
	Time             Interval
}

// Cell is a single rendered grid cell spanning one or more atomic slots.
// A session cell carries every session that occupies the covered slots,
// so parallel sections sharing a time stay visible side by side.
type Cell struct {
	Kind     CellKind
	Span     int
	Sessions []Session
}

// Row is one dated line of the grid.
type Row struct {
	Date    time.Time
	Weekday string
	Cells   []Cell
}

// Grid is the renderer-agnostic merged-cell layout shared by the JSON
// view, the CSV export and the PDF export.
type Grid struct {
	Columns []Interval
	Rows    []Row
}

// HeaderLabels returns the atomic slot labels in column order.
func (g Grid) HeaderLabels() []string {
	labels := make([]string, len(g.Columns))
	for i, col := range g.Columns {
		labels[i] = col.Label()
	}
	return labels
}

// BuildGrid converts dated sessions, an optional lunch break and reserved
// makeup dates into the minimal merged-cell grid. Column boundaries are
// the distinct start/end times of all sessions plus the lunch break;
// atomic slots not covered by any session or the lunch break are dropped.
// Rows exist for every date carrying at least one session and for every
// makeup date; makeup dates without sessions render placeholder cells.
// Makeup dates outside [rangeStart, rangeEnd] are ignored; a nil bound
// leaves that side open.
func BuildGrid(sessions []Session, lunch *Interval, makeupDates []time.Time, rangeStart, rangeEnd *time.Time) Grid {
	columns := atomicColumns(sessions, lunch)
	if len(columns) == 0 {
		return Grid{}
	}

	byDate := make(map[string][]Session)
	for _, s := range sessions {
		key := dateKey(s.Date)
		byDate[key] = append(byDate[key], s)
	}

	makeup := make(map[string]bool, len(makeupDates))
	rowDates := make(map[string]time.Time)
	for _, s := range sessions {
		rowDates[dateKey(s.Date)] = s.Date
	}
	for _, d := range makeupDates {
		if rangeStart != nil && d.Before(*rangeStart) {
			continue
		}
		if rangeEnd != nil && d.After(*rangeEnd) {
			continue
		}
		makeup[dateKey(d)] = true
		rowDates[dateKey(d)] = d
	}

	dates := make([]time.Time, 0, len(rowDates))
	for _, d := range rowDates {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rows := make([]Row, 0, len(dates))
	for _, date := range dates {
		key := dateKey(date)
		daySessions := byDate[key]
		sort.SliceStable(daySessions, func(i, j int) bool {
			return daySessions[i].Time.Start < daySessions[j].Time.Start
		})
		rows = append(rows, buildRow(date, daySessions, lunch, makeup[key], columns))
	}

	return Grid{Columns: columns, Rows: rows}
}

func buildRow(date time.Time, sessions []Session, lunch *Interval, isMakeup bool, columns []Interval) Row {
	row := Row{Date: date, Weekday: WeekdayName(date.Weekday())}

	for i := 0; i < len(columns); {
		col := columns[i]

		if group, end := sessionsFrom(sessions, col.Start); len(group) > 0 {
			span := spanWithin(columns, i, end)
			row.Cells = append(row.Cells, Cell{Kind: CellSession, Span: span, Sessions: group})
			i += span
			continue
		}
		if lunch != nil && lunch.Start == col.Start {
			span := spanWithin(columns, i, lunch.End)
			row.Cells = append(row.Cells, Cell{Kind: CellLunch, Span: span})
			i += span
			continue
		}

		kind := CellEmpty
		if isMakeup && len(sessions) == 0 {
			kind = CellMakeup
		}
		row.Cells = append(row.Cells, Cell{Kind: kind, Span: 1})
		i++
	}
	return row
}

// sessionsFrom gathers the sessions belonging to the cell anchored at
// start: the ones starting exactly there plus, transitively, any later
// session that begins before the furthest end collected so far. The
// input must be sorted by start time. The returned clock is the group's
// latest end and bounds the cell's span.
func sessionsFrom(sessions []Session, start Clock) ([]Session, Clock) {
	var group []Session
	end := start
	for _, s := range sessions {
		if s.Time.Start < start {
			continue
		}
		if len(group) == 0 {
			if s.Time.Start != start {
				break
			}
		} else if s.Time.Start >= end {
			break
		}
		group = append(group, s)
		if s.Time.End > end {
			end = s.Time.End
		}
	}
	return group, end
}

// spanWithin counts the consecutive atomic slots from index start that are
// fully covered before the first slot whose end exceeds end.
func spanWithin(columns []Interval, start int, end Clock) int {
	span := 0
	for i := start; i < len(columns) && columns[i].End <= end; i++ {
		span++
	}
	if span == 0 {
		span = 1
	}
	return span
}

func atomicColumns(sessions []Session, lunch *Interval) []Interval {
	boundarySet := make(map[Clock]bool)
	intervals := make([]Interval, 0, len(sessions)+1)
	for _, s := range sessions {
		intervals = append(intervals, s.Time)
	}
	if lunch != nil {
		intervals = append(intervals, *lunch)
	}
	for _, iv := range intervals {
		boundarySet[iv.Start] = true
		boundarySet[iv.End] = true
	}

	boundaries := make([]Clock, 0, len(boundarySet))
	for b := range boundarySet {
		boundaries = append(boundaries, b)
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i] < boundaries[j] })

	var columns []Interval
	for i := 0; i+1 < len(boundaries); i++ {
		slot := Interval{Start: boundaries[i], End: boundaries[i+1]}
		for _, iv := range intervals {
			if iv.Contains(slot) {
				columns = append(columns, slot)
				break
			}
		}
	}
	return columns
}

func dateKey(d time.Time) string {
	return d.Format("2006-01-02")
}
