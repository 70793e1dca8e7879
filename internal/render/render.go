// Package render prints schedules and outlines to a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"coursecal/internal/calendar"
	"coursecal/internal/schedule"
)

// DayLayout is the short date format used in every text view.
const DayLayout = "Mon/02-Jan"

// FormatDay formats a date as e.g. "Mon/27-Aug".
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DayLayout)
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	weekStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	noClassStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	todayStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A5F8C"))
	dueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Options controls table rendering.
type Options struct {
	// Todos adds the Prep/Assign/Grade column.
	Todos bool
	// Color enables lipgloss styling; disable for pipes and files.
	Color bool
	// Width caps the line width. Zero means unlimited.
	Width int
}

type column struct {
	title string
	cell  func(d *calendar.Day) string
	// flex columns shrink when Width is exceeded.
	flex bool
}

// Table writes one line per course day with week separators.
func Table(w io.Writer, s *schedule.Schedule, opts Options) error {
	cols := []column{
		{title: "Wk", cell: func(d *calendar.Day) string { return fmt.Sprint(d.Week) }},
		{title: "#", cell: func(d *calendar.Day) string { return fmt.Sprint(d.NthClassDay) }},
		{title: "Date", cell: func(d *calendar.Day) string { return FormatDay(d.Date) }},
		{title: "Topics", cell: func(d *calendar.Day) string { return strings.Join(d.Topics, "; ") }, flex: true},
		{title: "Due", cell: func(d *calendar.Day) string { return strings.Join(d.Assignments, "; ") }, flex: true},
	}
	if opts.Todos {
		cols = append(cols, column{
			title: "Todo",
			cell:  func(d *calendar.Day) string { return strings.Join(d.Todos, "; ") },
			flex:  true,
		})
	}

	rows := make([][]string, len(s.Calendar.Days))
	for i, d := range s.Calendar.Days {
		rows[i] = make([]string, len(cols))
		for j, c := range cols {
			rows[i][j] = c.cell(d)
		}
	}
	widths := columnWidths(cols, rows, opts.Width)

	style := func(st lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return st.Render(text)
	}

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	if _, err := fmt.Fprintln(w, style(headerStyle, formatRow(header, widths))); err != nil {
		return err
	}

	total := 0
	for _, wd := range widths {
		total += wd + 1
	}

	for i, d := range s.Calendar.Days {
		if d.FirstDayOfWeek && i > 0 {
			sep := strings.Repeat("-", max(total-1, 0))
			if _, err := fmt.Fprintln(w, style(weekStyle, sep)); err != nil {
				return err
			}
		}

		line := formatRow(rows[i], widths)
		switch {
		case d.NearestToToday:
			line = style(todayStyle, line)
		case !d.IsClassDay():
			line = style(noClassStyle, line)
		case len(d.Assignments) > 0:
			line = style(dueStyle, line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%s %s: %d course days, %d class days\n",
		s.Course.Name, s.Course.Semester.Name,
		s.Calendar.TotalCourseDays(), s.Calendar.TotalClassDays())
	return err
}

// columnWidths sizes columns to their content and, when limit is set,
// shrinks flex columns evenly until the row fits.
func columnWidths(cols []column, rows [][]string, limit int) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	if limit <= 0 {
		return widths
	}

	const minFlex = 8
	for {
		total := len(widths) - 1
		for _, wd := range widths {
			total += wd
		}
		if total <= limit {
			return widths
		}
		widest := -1
		for i, c := range cols {
			if c.flex && widths[i] > minFlex && (widest < 0 || widths[i] > widths[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			return widths
		}
		widths[widest]--
	}
}

func formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, wd := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		cell = runewidth.Truncate(cell, wd, "…")
		if i == len(widths)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(runewidth.FillRight(cell, wd))
	}
	return b.String()
}

// Outline writes the indented outline with the date each node was bound to.
func Outline(w io.Writer, s *schedule.Schedule) error {
	for n := range s.Outline.Nodes() {
		line := n.IndentedTitle()
		if n.Day != nil {
			line += "  [" + FormatDay(n.Day.Date) + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d nodes, deepest level %d, %d scheduled\n",
		s.Outline.Len(), s.Outline.DeepestLevel(), len(s.Scheduled()))
	return err
}
