package report

import (
	"testing"

	"effortmap/internal/model"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	results := []model.ConnectionResult{
		{PhysicalKm: 100, WorstLatencyMs: 10, EffortFactor: 1.1, EffortDistance: 110},
		{PhysicalKm: 200, WorstLatencyMs: 50, EffortFactor: 1.5, EffortDistance: 300},
		{PhysicalKm: 300, WorstLatencyMs: 30, EffortFactor: 1.3, EffortDistance: 390},
	}

	s := Summarize(results)
	if s.Count != 3 {
		t.Fatalf("count=%d", s.Count)
	}
	if s.TotalPhysicalKm != 600 {
		t.Fatalf("total physical=%g", s.TotalPhysicalKm)
	}
	if s.TotalEffortDist != 800 {
		t.Fatalf("total effort=%g", s.TotalEffortDist)
	}
	if s.MinEffortFactor != 1.1 || s.MaxEffortFactor != 1.5 {
		t.Fatalf("factor range=%g..%g", s.MinEffortFactor, s.MaxEffortFactor)
	}
	if s.AvgEffortFactor != 1.3 {
		t.Fatalf("avg factor=%g", s.AvgEffortFactor)
	}
	if s.WorstLatencyMs != 50 {
		t.Fatalf("worst latency=%g", s.WorstLatencyMs)
	}
	if s.MaxEffortDistance != 390 {
		t.Fatalf("max effort=%g", s.MaxEffortDistance)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	if s.Count != 0 || s.MinEffortFactor != 0 || s.MaxEffortDistance != 0 {
		t.Fatalf("summary=%+v", s)
	}
}
