package batches

import (
	"fmt"
	"strings"
	"time"

	"github.com/ldi/taskdeck/pkg/models"
)

// DateLayout is the format of filter form dates.
const DateLayout = "2006-01-02"

// DefaultWindowDays is how far back the default filter reaches.
const DefaultWindowDays = 30

// Filter selects batches by creation day and status. The time range applies
// only when both Start and End are set.
type Filter struct {
	Start  *time.Time
	End    *time.Time
	Status string
}

// DefaultFilter covers the last days days up to and including today, all
// statuses.
func DefaultFilter(now time.Time, days int) Filter {
	if days <= 0 {
		days = DefaultWindowDays
	}
	end := StartOfDay(now)
	start := end.AddDate(0, 0, -days)
	return Filter{Start: &start, End: &end}
}

// IsIdentity reports whether the filter admits every batch.
func (f Filter) IsIdentity() bool {
	return (f.Start == nil || f.End == nil) && f.Status == ""
}

// Bounds returns the inclusive epoch-second range, or ok=false when the
// range predicate is off.
func (f Filter) Bounds() (from, to int64, ok bool) {
	if f.Start == nil || f.End == nil {
		return 0, 0, false
	}
	from = StartOfDay(*f.Start).Unix()
	to = StartOfDay(*f.End).AddDate(0, 0, 1).Unix() - 1
	return from, to, true
}

// Match applies both predicates to one batch.
func (f Filter) Match(b *models.Batch) bool {
	if b == nil {
		return false
	}
	if from, to, ok := f.Bounds(); ok {
		if b.CreatedAt < from || b.CreatedAt > to {
			return false
		}
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

// ApplyFilter returns the matching batches in their original order. The
// identity filter returns the input unchanged.
func ApplyFilter(batches []*models.Batch, f Filter) []*models.Batch {
	if f.IsIdentity() {
		return batches
	}
	out := make([]*models.Batch, 0, len(batches))
	for _, b := range batches {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// ParseFilter builds a filter from form input. Blank dates leave the bound
// unset.
func ParseFilter(start, end, status string) (Filter, error) {
	var f Filter
	var err error
	if f.Start, err = parseDate("start date", start); err != nil {
		return Filter{}, err
	}
	if f.End, err = parseDate("end date", end); err != nil {
		return Filter{}, err
	}
	f.Status = strings.TrimSpace(status)
	return f, nil
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", field, value)
	}
	return &t, nil
}

// FormatDate renders a bound for the filter form.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
