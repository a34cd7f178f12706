// Package report turns a run's connection results into exportable output:
// a fixed-column CSV and a summary snapshot.
package report

import (
	"math"

	"effortmap/internal/model"
)

// Summary is a basic statistics snapshot over one evaluation pass.
type Summary struct {
	Count             int
	TotalPhysicalKm   float64
	TotalEffortDist   float64
	MinEffortFactor   float64
	AvgEffortFactor   float64
	MaxEffortFactor   float64
	WorstLatencyMs    float64
	MaxEffortDistance float64
}

// Summarize computes summary statistics over connection results.
func Summarize(results []model.ConnectionResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	var sumFactor float64
	minFactor := math.MaxFloat64
	s := Summary{Count: len(results)}

	for _, r := range results {
		s.TotalPhysicalKm += r.PhysicalKm
		s.TotalEffortDist += r.EffortDistance
		sumFactor += r.EffortFactor
		if r.EffortFactor < minFactor {
			minFactor = r.EffortFactor
		}
		if r.EffortFactor > s.MaxEffortFactor {
			s.MaxEffortFactor = r.EffortFactor
		}
		if r.WorstLatencyMs > s.WorstLatencyMs {
			s.WorstLatencyMs = r.WorstLatencyMs
		}
		if r.EffortDistance > s.MaxEffortDistance {
			s.MaxEffortDistance = r.EffortDistance
		}
	}

	s.MinEffortFactor = minFactor
	s.AvgEffortFactor = sumFactor / float64(len(results))
	return s
}
