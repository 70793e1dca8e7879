package schedule

import "coursecal/internal/calendar"

// Cursor points into the class days of a calendar. Every index it hands out
// is clamped to the valid range, so lookups near the start or end of the
// term saturate on the boundary day instead of failing.
//
// A cursor starts pristine; the first topic binds to the starting day
// without advancing.
type Cursor struct {
	days     []*calendar.Day
	index    int
	pristine bool
}

// NewCursor returns a pristine cursor at the first class day of cal.
func NewCursor(cal *calendar.Calendar) *Cursor {
	return &Cursor{
		days:     cal.ClassDays(),
		pristine: true,
	}
}

// Len is the number of class days the cursor can address.
func (c *Cursor) Len() int { return len(c.days) }

// Index is the current position among the class days.
func (c *Cursor) Index() int { return c.index }

// Pristine reports whether no topic has been processed yet.
func (c *Cursor) Pristine() bool { return c.pristine }

// Current returns the day under the cursor, or nil if there are no class days.
func (c *Cursor) Current() *calendar.Day {
	return c.at(c.index)
}

// MarkDirty leaves the pristine state. Idempotent.
func (c *Cursor) MarkDirty() {
	c.pristine = false
}

// Advance moves forward one class day, stopping at the last one.
func (c *Cursor) Advance() {
	c.MarkDirty()
	c.index = c.clamp(c.index + 1)
}

// AdvanceUnlessPristine is a no-op until the cursor is dirty.
func (c *Cursor) AdvanceUnlessPristine() {
	if !c.pristine {
		c.Advance()
	}
}

// Offset returns the class day n positions from the cursor without moving it.
func (c *Cursor) Offset(n int) *calendar.Day {
	return c.at(c.clamp(c.index + n))
}

func (c *Cursor) clamp(i int) int {
	last := len(c.days) - 1
	return max(0, min(i, last))
}

func (c *Cursor) at(i int) *calendar.Day {
	if len(c.days) == 0 {
		return nil
	}
	return c.days[i]
}
