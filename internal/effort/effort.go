// Package effort computes the latency-weighted "virtual distance" between
// two nodes: the physical great-circle distance inflated by a factor derived
// from the worse of the two nodes' measured latencies.
package effort

import (
	"errors"
	"fmt"

	"effortmap/internal/geomath"
	"effortmap/internal/model"
)

// DefaultLatencyBaseMs is the latency that doubles the effort factor.
const DefaultLatencyBaseMs = 100.0

// ErrLatencyNotMeasured is returned when Combine is called before both
// nodes have a measured latency.
var ErrLatencyNotMeasured = errors.New("latency not measured")

// Result is the combined outcome for one node pair.
type Result struct {
	PhysicalKm     float64
	WorstLatencyMs float64
	Factor         float64
	Distance       float64
}

// Combine derives the effort distance for a node pair:
//
//	factor   = 1 + worstLatency/baseMs
//	distance = physicalKm * factor
//
// baseMs must be positive; zero or negative falls back to
// DefaultLatencyBaseMs. The result is symmetric in the two nodes and
// monotone non-decreasing in both physical distance and worst latency.
func Combine(n1, n2 model.Node, baseMs float64) (Result, error) {
	l1, ok := n1.Latency.Value()
	if !ok {
		return Result{}, fmt.Errorf("node %q: %w", n1.Name, ErrLatencyNotMeasured)
	}
	l2, ok := n2.Latency.Value()
	if !ok {
		return Result{}, fmt.Errorf("node %q: %w", n2.Name, ErrLatencyNotMeasured)
	}

	km, err := geomath.Haversine(n1.Lat, n1.Lon, n2.Lat, n2.Lon)
	if err != nil {
		return Result{}, err
	}

	if baseMs <= 0 {
		baseMs = DefaultLatencyBaseMs
	}

	worst := l1
	if l2 > worst {
		worst = l2
	}
	factor := 1 + worst/baseMs

	return Result{
		PhysicalKm:     km,
		WorstLatencyMs: worst,
		Factor:         factor,
		Distance:       km * factor,
	}, nil
}
