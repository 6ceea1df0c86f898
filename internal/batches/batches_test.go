package batches

import (
	"testing"
	"time"

	"github.com/ldi/taskdeck/internal/taxonomy"
	"github.com/ldi/taskdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batch(id, status string, created time.Time) *models.Batch {
	return &models.Batch{ID: id, Status: status, CreatedAt: created.Unix()}
}

func day(y int, m time.Month, d, h, min, s int) time.Time {
	return time.Date(y, m, d, h, min, s, 0, time.Local)
}

func TestComputeStatusStats(t *testing.T) {
	now := day(2025, 3, 10, 12, 0, 0)
	list := []*models.Batch{
		batch("b1", "completed", now),
		batch("b2", "failed", now),
		nil,
		batch("b3", "completed", now),
		batch("b4", "mystery", now),
	}

	stats := ComputeStatusStats(list, taxonomy.Default)
	require.Len(t, stats, 3)
	assert.Equal(t, StatusCount{Status: "completed", Label: "Completed", Count: 2}, stats[0])
	assert.Equal(t, "failed", stats[1].Status)
	assert.Equal(t, 1, stats[1].Count)
	assert.Equal(t, "mystery", stats[2].Status)
	assert.Equal(t, taxonomy.Default.Label("mystery"), stats[2].Label)

	total := 0
	for _, s := range stats {
		assert.Positive(t, s.Count)
		total += s.Count
	}
	assert.Equal(t, 4, total)
}

func TestComputeStatusStatsEmpty(t *testing.T) {
	assert.Empty(t, ComputeStatusStats(nil, taxonomy.Default))
	assert.Empty(t, Counts([]*models.Batch{}))
}

func TestCounts(t *testing.T) {
	now := time.Now()
	counts := Counts([]*models.Batch{
		batch("a", "completed", now),
		batch("b", "completed", now),
		batch("c", "in_progress", now),
	})
	assert.Equal(t, map[string]int{"completed": 2, "in_progress": 1}, counts)
}

func TestApplyFilterDateRangeInclusive(t *testing.T) {
	list := []*models.Batch{
		batch("before", "completed", day(2025, 3, 1, 23, 59, 59)),
		batch("first", "completed", day(2025, 3, 2, 0, 0, 0)),
		batch("middle", "failed", day(2025, 3, 3, 14, 30, 0)),
		batch("last", "completed", day(2025, 3, 4, 23, 59, 59)),
		batch("after", "completed", day(2025, 3, 5, 0, 0, 0)),
	}
	start := day(2025, 3, 2, 9, 0, 0)
	end := day(2025, 3, 4, 0, 0, 0)

	got := ApplyFilter(list, Filter{Start: &start, End: &end})
	assert.Equal(t, []string{"first", "middle", "last"}, ids(got))
}

func TestApplyFilterStatus(t *testing.T) {
	now := time.Now()
	list := []*models.Batch{
		batch("a", "completed", now),
		batch("b", "failed", now),
		batch("c", "completed", now),
	}
	got := ApplyFilter(list, Filter{Status: "completed"})
	assert.Equal(t, []string{"a", "c"}, ids(got))
	assert.Len(t, list, 3, "input must not be modified")
}

func TestApplyFilterSingleBoundIgnored(t *testing.T) {
	old := day(2020, 1, 1, 0, 0, 0)
	list := []*models.Batch{batch("old", "completed", old), batch("new", "completed", time.Now())}
	start := day(2024, 1, 1, 0, 0, 0)

	got := ApplyFilter(list, Filter{Start: &start})
	assert.Equal(t, []string{"old", "new"}, ids(got))
}

func TestApplyFilterIdentity(t *testing.T) {
	list := []*models.Batch{batch("a", "completed", time.Now())}
	got := ApplyFilter(list, Filter{})
	require.Len(t, got, 1)
	assert.Same(t, list[0], got[0])
}

func TestApplyFilterAlwaysFromOriginal(t *testing.T) {
	now := time.Now()
	list := []*models.Batch{
		batch("a", "completed", now),
		batch("b", "failed", now),
	}
	narrowed := ApplyFilter(list, Filter{Status: "failed"})
	assert.Equal(t, []string{"b"}, ids(narrowed))

	widened := ApplyFilter(list, Filter{Status: "completed"})
	assert.Equal(t, []string{"a"}, ids(widened))
}

func TestDefaultFilter(t *testing.T) {
	now := day(2025, 3, 31, 15, 0, 0)
	f := DefaultFilter(now, 0)
	require.NotNil(t, f.Start)
	require.NotNil(t, f.End)
	assert.Equal(t, "2025-03-01", FormatDate(f.Start))
	assert.Equal(t, "2025-03-31", FormatDate(f.End))
	assert.Empty(t, f.Status)

	list := []*models.Batch{
		batch("today", "completed", day(2025, 3, 31, 23, 0, 0)),
		batch("month-ago", "completed", day(2025, 3, 1, 0, 0, 1)),
		batch("too-old", "completed", day(2025, 2, 28, 23, 59, 59)),
	}
	assert.Equal(t, []string{"today", "month-ago"}, ids(ApplyFilter(list, f)))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("2025-01-02", " 2025-01-05 ", " failed ")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", FormatDate(f.Start))
	assert.Equal(t, "2025-01-05", FormatDate(f.End))
	assert.Equal(t, "failed", f.Status)

	f, err = ParseFilter("", "", "")
	require.NoError(t, err)
	assert.True(t, f.IsIdentity())

	_, err = ParseFilter("01/02/2025", "", "")
	assert.ErrorContains(t, err, "start date")

	_, err = ParseFilter("", "2025-13-01", "")
	assert.ErrorContains(t, err, "end date")
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name      string
		counts    *models.RequestCounts
		completed float64
		failed    float64
	}{
		{"nil counts", nil, 0, 0},
		{"zero total", &models.RequestCounts{}, 0, 0},
		{"all done", &models.RequestCounts{Total: 4, Completed: 4}, 100, 0},
		{"thirds", &models.RequestCounts{Total: 3, Completed: 1, Failed: 2}, 33.3, 66.7},
		{"partial", &models.RequestCounts{Total: 8, Completed: 1, Failed: 1}, 12.5, 12.5},
		{"completed over total", &models.RequestCounts{Total: 4, Completed: 5}, 100, 0},
		{"negative counts", &models.RequestCounts{Total: 4, Completed: -1, Failed: 2}, 0, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := Progress(tt.counts)
			assert.InDelta(t, tt.completed, c, 1e-9)
			assert.InDelta(t, tt.failed, f, 1e-9)
		})
	}
}

func ids(list []*models.Batch) []string {
	out := make([]string, 0, len(list))
	for _, b := range list {
		out = append(out, b.ID)
	}
	return out
}
