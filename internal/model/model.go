package model

// Latency is the round-trip latency state of a node. The zero value means
// "not yet measured", which is distinct from a measured zero-millisecond
// latency (the self node measures 0.0ms).
type Latency struct {
	measured bool
	ms       float64
}

// MeasuredLatency returns a Latency holding a measured value in milliseconds.
func MeasuredLatency(ms float64) Latency {
	return Latency{measured: true, ms: ms}
}

// Value returns the measured latency in milliseconds and whether a
// measurement has been taken.
func (l Latency) Value() (float64, bool) {
	return l.ms, l.measured
}

// Measured reports whether the node's latency has been measured.
func (l Latency) Measured() bool { return l.measured }

// Node is a modeled network endpoint with a real-world location.
// Elevation is a display-only scalar (e.g. floor number) used as the
// Y-axis by visualization consumers; it takes no part in distance math.
type Node struct {
	Name      string
	Lat       float64
	Lon       float64
	Elevation float64
	Address   string
	Latency   Latency
	Self      bool
}

// ConnectionResult is the computed outcome for one ordered node pair.
// It is derived on demand and never cached.
type ConnectionResult struct {
	From           string
	To             string
	PhysicalKm     float64
	WorstLatencyMs float64
	EffortFactor   float64
	EffortDistance float64
}

// RenderNode carries the per-node values a visualization consumer needs.
// LatencyMs is nil when the node has not been probed.
type RenderNode struct {
	Name      string   `json:"name"`
	Lon       float64  `json:"lon"`
	Elevation float64  `json:"elevation"`
	LatencyMs *float64 `json:"latency_ms"`
	Self      bool     `json:"self"`
}

// RenderConnection carries the per-connection values a visualization
// consumer needs to draw and label one path.
type RenderConnection struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	PhysicalKm     float64 `json:"physical_km"`
	WorstLatencyMs float64 `json:"worst_latency_ms"`
	EffortFactor   float64 `json:"effort_factor"`
	EffortDistance float64 `json:"effort_distance"`
}

// RenderPayload is the complete plain-value export for rendering.
// MaxEffortDistance lets consumers scale line weight/colour without
// re-deriving it.
type RenderPayload struct {
	Nodes             []RenderNode       `json:"nodes"`
	Connections       []RenderConnection `json:"connections"`
	MaxEffortDistance float64            `json:"max_effort_distance"`
}
