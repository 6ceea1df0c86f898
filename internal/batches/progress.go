package batches

import (
	"math"

	"github.com/ldi/taskdeck/pkg/models"
)

// Progress returns completed and failed shares of total as percentages
// rounded to one decimal and clamped to [0, 100]. A zero total yields 0 and 0.
func Progress(rc *models.RequestCounts) (completed, failed float64) {
	if rc == nil || rc.Total <= 0 {
		return 0, 0
	}
	total := float64(rc.Total)
	return round1(float64(rc.Completed) / total * 100), round1(float64(rc.Failed) / total * 100)
}

func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Min(math.Round(v*10)/10, 100)
}
