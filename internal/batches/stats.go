// Package batches aggregates and filters batch snapshots. Everything here is
// pure: callers keep the unfiltered collection and re-run the functions on
// every filter change.
package batches

import "github.com/ldi/taskdeck/pkg/models"

// Labeler maps a raw status onto its display label.
type Labeler interface {
	Label(status string) string
}

type StatusCount struct {
	Status string
	Label  string
	Count  int
}

// ComputeStatusStats counts batches per status in first-occurrence order.
// Statuses with no batches never appear. Nil entries are ignored.
func ComputeStatusStats(batches []*models.Batch, labels Labeler) []StatusCount {
	index := make(map[string]int)
	var out []StatusCount
	for _, b := range batches {
		if b == nil {
			continue
		}
		if i, ok := index[b.Status]; ok {
			out[i].Count++
			continue
		}
		label := b.Status
		if labels != nil {
			label = labels.Label(b.Status)
		}
		index[b.Status] = len(out)
		out = append(out, StatusCount{Status: b.Status, Label: label, Count: 1})
	}
	return out
}

// Counts is ComputeStatusStats as a status -> count map.
func Counts(batches []*models.Batch) map[string]int {
	out := make(map[string]int)
	for _, sc := range ComputeStatusStats(batches, nil) {
		out[sc.Status] = sc.Count
	}
	return out
}
