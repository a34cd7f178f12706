// Package netmodel owns the node collection and orchestrates location
// discovery, latency probing, and effort-distance evaluation over a set of
// requested connections.
package netmodel

import (
	"context"
	"errors"
	"log/slog"

	"effortmap/internal/effort"
	"effortmap/internal/geoip"
	"effortmap/internal/geomath"
	"effortmap/internal/model"
	"effortmap/internal/observability"
	"effortmap/internal/pinger"
)

// DefaultNodeLatencyMs is assumed for address-less nodes other than the
// self node (which gets 0.0).
const DefaultNodeLatencyMs = 5.0

// ErrNoNodes is returned when evaluation is requested on an empty model.
var ErrNoNodes = errors.New("no nodes added")

// Prober measures round-trip latency to an address. It never fails; the
// reason tags which branch produced the value.
type Prober interface {
	Measure(ctx context.Context, address string) (float64, pinger.Reason)
}

// Locator resolves the caller's own location.
type Locator interface {
	Locate(ctx context.Context) (geoip.Location, error)
}

// NodeSpec describes a node to add.
type NodeSpec struct {
	Name      string
	Lat       float64
	Lon       float64
	Elevation float64
	Address   string
	Self      bool
}

// Connection names one node pair to evaluate.
type Connection struct {
	From string
	To   string
}

// Model is the network model. It is not safe for concurrent use; probing
// and evaluation run sequentially on the calling goroutine.
type Model struct {
	latencyBaseMs float64
	prober        Prober
	locator       Locator
	log           *slog.Logger
	metrics       *observability.Collector

	nodes []*model.Node
	self  *model.Node
}

// Options configures a Model. Prober is required for measurement; Locator
// only for AddSelfNodeAuto. Logger may be nil (slog.Default); Metrics may
// be nil.
type Options struct {
	LatencyBaseMs float64
	Prober        Prober
	Locator       Locator
	Logger        *slog.Logger
	Metrics       *observability.Collector
}

// New builds an empty model.
func New(opts Options) *Model {
	base := opts.LatencyBaseMs
	if base <= 0 {
		base = effort.DefaultLatencyBaseMs
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		latencyBaseMs: base,
		prober:        opts.Prober,
		locator:       opts.Locator,
		log:           logger,
		metrics:       opts.Metrics,
	}
}

// AddNode validates the coordinates and appends a node. Names are not
// enforced unique; on lookup the last-inserted node with a name wins.
func (m *Model) AddNode(spec NodeSpec) (*model.Node, error) {
	if err := geomath.ValidateCoordinate(spec.Lat, spec.Lon); err != nil {
		return nil, err
	}

	n := &model.Node{
		Name:      spec.Name,
		Lat:       spec.Lat,
		Lon:       spec.Lon,
		Elevation: spec.Elevation,
		Address:   spec.Address,
		Self:      spec.Self,
	}
	m.nodes = append(m.nodes, n)
	if spec.Self {
		m.self = n
	}

	m.log.Debug("added node", "name", spec.Name, "lat", spec.Lat, "lon", spec.Lon)
	return n, nil
}

// AddSelfNodeAuto discovers the caller's location via the locator and adds
// it as the self node. When the locator reports no address the unset
// sentinel is stored so probing short-circuits to zero latency.
func (m *Model) AddSelfNodeAuto(ctx context.Context, name string, elevation float64) (*model.Node, error) {
	if m.locator == nil {
		return nil, errors.New("no locator configured")
	}

	loc, err := m.locator.Locate(ctx)
	if err != nil {
		return nil, err
	}

	addr := loc.Address
	if addr == "" {
		addr = pinger.UnsetAddress
	}
	m.log.Info("auto-detected self location",
		"name", name, "lat", loc.Lat, "lon", loc.Lon, "address", loc.Address)

	return m.AddNode(NodeSpec{
		Name:      name,
		Lat:       loc.Lat,
		Lon:       loc.Lon,
		Elevation: elevation,
		Address:   addr,
		Self:      true,
	})
}

// Nodes returns the nodes in insertion order.
func (m *Model) Nodes() []*model.Node { return m.nodes }

// SelfNode returns the designated self node, or nil if none was added.
func (m *Model) SelfNode() *model.Node { return m.self }

// MeasureAll probes all nodes sequentially, in insertion order. Nodes with
// an address are probed live; address-less nodes get a small fixed default,
// except the self node which gets 0.0.
func (m *Model) MeasureAll(ctx context.Context) {
	m.log.Info("measuring live network latency for all nodes", "nodes", len(m.nodes))

	for _, n := range m.nodes {
		if n.Address != "" {
			ms, reason := m.prober.Measure(ctx, n.Address)
			n.Latency = model.MeasuredLatency(ms)
			m.log.Info("node latency",
				"name", n.Name, "address", n.Address, "latency_ms", ms, "reason", string(reason))
			continue
		}

		ms := DefaultNodeLatencyMs
		if n == m.self {
			ms = 0.0
		}
		n.Latency = model.MeasuredLatency(ms)
		m.log.Debug("node has no address, using default latency", "name", n.Name, "latency_ms", ms)
	}
}

// EvaluateConnections computes a result for each requested pair. Latencies
// are measured first if any node is still unmeasured. Pairs naming unknown
// nodes are skipped with a warning. Results are recomputed every call.
func (m *Model) EvaluateConnections(ctx context.Context, conns []Connection) ([]model.ConnectionResult, error) {
	if len(m.nodes) == 0 {
		return nil, ErrNoNodes
	}

	for _, n := range m.nodes {
		if !n.Latency.Measured() {
			m.MeasureAll(ctx)
			break
		}
	}

	m.metrics.EvaluationRun()

	byName := make(map[string]*model.Node, len(m.nodes))
	for _, n := range m.nodes {
		byName[n.Name] = n
	}

	results := make([]model.ConnectionResult, 0, len(conns))
	for _, c := range conns {
		n1, ok := byName[c.From]
		if !ok {
			m.log.Warn("node not found, skipping connection", "name", c.From)
			m.metrics.ConnectionSkipped()
			continue
		}
		n2, ok := byName[c.To]
		if !ok {
			m.log.Warn("node not found, skipping connection", "name", c.To)
			m.metrics.ConnectionSkipped()
			continue
		}

		r, err := effort.Combine(*n1, *n2, m.latencyBaseMs)
		if err != nil {
			m.log.Error("effort computation failed", "from", c.From, "to", c.To, "error", err)
			continue
		}

		m.metrics.ConnectionEvaluated()
		m.log.Info("path evaluated",
			"from", n1.Name, "to", n2.Name,
			"physical_km", r.PhysicalKm, "worst_latency_ms", r.WorstLatencyMs,
			"effort_factor", r.Factor, "effort_distance", r.Distance)

		results = append(results, model.ConnectionResult{
			From:           n1.Name,
			To:             n2.Name,
			PhysicalKm:     r.PhysicalKm,
			WorstLatencyMs: r.WorstLatencyMs,
			EffortFactor:   r.Factor,
			EffortDistance: r.Distance,
		})
	}

	return results, nil
}

// RenderPayload exports the plain values a visualization consumer needs,
// pairing the current node states with one evaluation's results.
func (m *Model) RenderPayload(results []model.ConnectionResult) model.RenderPayload {
	payload := model.RenderPayload{
		Nodes:       make([]model.RenderNode, 0, len(m.nodes)),
		Connections: make([]model.RenderConnection, 0, len(results)),
	}

	for _, n := range m.nodes {
		rn := model.RenderNode{
			Name:      n.Name,
			Lon:       n.Lon,
			Elevation: n.Elevation,
			Self:      n.Self,
		}
		if ms, ok := n.Latency.Value(); ok {
			v := ms
			rn.LatencyMs = &v
		}
		payload.Nodes = append(payload.Nodes, rn)
	}

	for _, r := range results {
		payload.Connections = append(payload.Connections, model.RenderConnection{
			From:           r.From,
			To:             r.To,
			PhysicalKm:     r.PhysicalKm,
			WorstLatencyMs: r.WorstLatencyMs,
			EffortFactor:   r.EffortFactor,
			EffortDistance: r.EffortDistance,
		})
		if r.EffortDistance > payload.MaxEffortDistance {
			payload.MaxEffortDistance = r.EffortDistance
		}
	}

	return payload
}
