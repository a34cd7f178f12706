package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"effortmap/internal/model"
)

// WriteCSV writes connection results to CSV with a fixed column order.
func WriteCSV(w io.Writer, results []model.ConnectionResult) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"from",
		"to",
		"physical_km",
		"worst_latency_ms",
		"effort_factor",
		"effort_distance",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		record := []string{
			r.From,
			r.To,
			strconv.FormatFloat(r.PhysicalKm, 'f', 3, 64),
			strconv.FormatFloat(r.WorstLatencyMs, 'f', 3, 64),
			strconv.FormatFloat(r.EffortFactor, 'f', 3, 64),
			strconv.FormatFloat(r.EffortDistance, 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}
