package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"effortmap/internal/config"
	"effortmap/internal/geoip"
	"effortmap/internal/logging"
	"effortmap/internal/model"
	"effortmap/internal/netmodel"
	"effortmap/internal/observability"
	"effortmap/internal/pinger"
	"effortmap/internal/report"
	"effortmap/internal/stunaddr"
)

const usage = `effortmap - latency-weighted network distance mapper

Usage:
  effortmap locate [--timeout 10s]
  effortmap discover [--stun host:port,...] [--timeout 5s]
  effortmap probe --config <path> [--node <name>]
  effortmap eval --config <path> [--out <file>] [--interval 0s] [--metrics-listen <addr>]
  effortmap render --config <path> [--out <file>]
  effortmap config init --config <path>

Common flags:
  --log-level debug|info|warn|error (default info)
  --log-format text|json (default text)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "-h", "--help", "help":
		fmt.Print(usage)
	case "locate":
		handleLocate(os.Args[2:])
	case "discover":
		handleDiscover(os.Args[2:])
	case "probe":
		handleProbe(os.Args[2:])
	case "eval":
		handleEval(os.Args[2:])
	case "render":
		handleRender(os.Args[2:])
	case "config":
		handleConfig(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// logFlags registers the shared logging flags on a flag set and returns a
// setup func to call after parsing.
func logFlags(fs *flag.FlagSet) func() *slog.Logger {
	level := fs.String("log-level", "info", "log level: debug|info|warn|error")
	format := fs.String("log-format", "text", "log format: text|json")
	return func() *slog.Logger {
		logger := logging.New(logging.Config{Level: *level, Format: *format})
		slog.SetDefault(logger)
		return logger
	}
}

func handleLocate(args []string) {
	fs := flag.NewFlagSet("locate", flag.ExitOnError)
	timeout := fs.Duration("timeout", geoip.DefaultHTTPTimeout, "per-service HTTP timeout")
	setup := logFlags(fs)
	_ = fs.Parse(args)
	logger := setup()

	client := &http.Client{Timeout: *timeout}
	locator := geoip.NewLocator(geoip.DefaultProviders(client), logger, nil)

	loc, err := locator.Locate(context.Background())
	if err != nil {
		fatal(err)
	}
	fmt.Printf("lat=%.4f lon=%.4f address=%s\n", loc.Lat, loc.Lon, loc.Address)
}

func handleDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	stunList := fs.String("stun", "", "comma-separated STUN servers")
	timeout := fs.Duration("timeout", 5*time.Second, "per-server timeout")
	setup := logFlags(fs)
	_ = fs.Parse(args)
	setup()

	mapped, err := stunaddr.Discover(context.Background(), splitList(*stunList), *timeout)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("public address: %s (host %s)\n", mapped, stunaddr.Host(mapped))
}

func handleProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	nodeName := fs.String("node", "", "probe only this node")
	setup := logFlags(fs)
	_ = fs.Parse(args)
	logger := setup()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}

	prober := newProber(cfg, logger, nil)
	ctx := context.Background()
	found := false
	for _, n := range cfg.Nodes {
		if *nodeName != "" && n.Name != *nodeName {
			continue
		}
		found = true
		if n.Address == "" {
			fmt.Printf("%-28s no address\n", n.Name)
			continue
		}
		ms, reason := prober.Measure(ctx, n.Address)
		fmt.Printf("%-28s %-16s %8.1fms  %s\n", n.Name, n.Address, ms, reason)
	}
	if *nodeName != "" && !found {
		fatal(fmt.Errorf("node %q not in config", *nodeName))
	}
}

func handleEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	outPath := fs.String("out", "", "write results CSV to file")
	interval := fs.Duration("interval", 0, "re-evaluate on this interval (0 = once)")
	metricsListen := fs.String("metrics-listen", "", "serve Prometheus metrics on this address")
	setup := logFlags(fs)
	_ = fs.Parse(args)
	logger := setup()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}

	var collector *observability.Collector
	if *metricsListen != "" {
		collector, err = observability.NewCollector(prometheus.NewRegistry())
		if err != nil {
			fatal(err)
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			logger.Info("serving metrics", "addr", *metricsListen)
			if err := http.ListenAndServe(*metricsListen, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, conns, err := buildModel(ctx, cfg, logger, collector)
	if err != nil {
		fatal(err)
	}

	evalOnce := func() error {
		results, err := m.EvaluateConnections(ctx, conns)
		if err != nil {
			return err
		}
		printResults(results)

		if *outPath != "" {
			f, err := os.Create(*outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := report.WriteCSV(f, results); err != nil {
				return err
			}
			logger.Info("wrote results", "path", *outPath, "connections", len(results))
		}
		return nil
	}

	if err := evalOnce(); err != nil {
		fatal(err)
	}
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := evalOnce(); err != nil {
				logger.Error("evaluation failed", "error", err)
			}
		}
	}
}

func handleRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	outPath := fs.String("out", "", "write JSON payload to file (default stdout)")
	setup := logFlags(fs)
	_ = fs.Parse(args)
	logger := setup()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, conns, err := buildModel(ctx, cfg, logger, nil)
	if err != nil {
		fatal(err)
	}

	results, err := m.EvaluateConnections(ctx, conns)
	if err != nil {
		fatal(err)
	}
	payload := m.RenderPayload(results)

	out := os.Stdout
	if *outPath != "" && *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		fatal(err)
	}
}

func handleConfig(args []string) {
	if len(args) == 0 || args[0] != "init" {
		fmt.Fprint(os.Stderr, "config subcommand required: init\n")
		os.Exit(2)
	}
	fs := flag.NewFlagSet("config init", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	_ = fs.Parse(args[1:])

	if *configPath == "" {
		fatal(errors.New("--config is required"))
	}
	if err := config.Save(*configPath, starterConfig()); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s\n", *configPath)
}

// starterConfig mirrors the classic demo layout: the user's console plus a
// few well-known DNS anycast nodes.
func starterConfig() config.Config {
	return config.Config{
		Self: &config.SelfConfig{
			Name:        config.DefaultSelfName,
			Elevation:   15,
			Auto:        true,
			FallbackLat: 37.7749,
			FallbackLon: -122.4194,
		},
		Nodes: []config.NodeConfig{
			{Name: "Cloudflare DNS (Global)", Lat: 37.7749, Lon: -122.3941, Elevation: 5, Address: "1.1.1.1"},
			{Name: "Google DNS (NYC Area)", Lat: 40.7128, Lon: -74.0060, Elevation: 30, Address: "8.8.8.8"},
			{Name: "OpenDNS (UK/Europe)", Lat: 51.5074, Lon: 0.1278, Elevation: 10, Address: "208.67.222.222"},
		},
		Connections: []config.ConnectionConfig{
			{From: config.DefaultSelfName, To: "Cloudflare DNS (Global)"},
			{From: config.DefaultSelfName, To: "Google DNS (NYC Area)"},
			{From: config.DefaultSelfName, To: "OpenDNS (UK/Europe)"},
			{From: "Cloudflare DNS (Global)", To: "Google DNS (NYC Area)"},
		},
	}
}

// buildModel assembles the locator, prober, and model from a config and
// adds all configured nodes, resolving the self node first.
func buildModel(ctx context.Context, cfg config.Config, logger *slog.Logger, collector *observability.Collector) (*netmodel.Model, []netmodel.Connection, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout()}
	locator := geoip.NewLocator(geoip.DefaultProviders(client), logger, collector)
	prober := newProber(cfg, logger, collector)

	m := netmodel.New(netmodel.Options{
		LatencyBaseMs: cfg.Transform.LatencyBaseMs,
		Prober:        prober,
		Locator:       locator,
		Logger:        logger,
		Metrics:       collector,
	})

	if cfg.Self != nil {
		if err := addSelfNode(ctx, m, cfg, logger); err != nil {
			return nil, nil, err
		}
	}

	for _, n := range cfg.Nodes {
		if _, err := m.AddNode(netmodel.NodeSpec{
			Name:      n.Name,
			Lat:       n.Lat,
			Lon:       n.Lon,
			Elevation: n.Elevation,
			Address:   n.Address,
		}); err != nil {
			return nil, nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
	}

	conns := make([]netmodel.Connection, 0, len(cfg.Connections))
	for _, c := range cfg.Connections {
		conns = append(conns, netmodel.Connection{From: c.From, To: c.To})
	}
	return m, conns, nil
}

// addSelfNode resolves the self node: Geo-IP auto-detection when enabled,
// falling back to the configured manual location. When the resolved
// location lacks an address, STUN discovery fills it best-effort.
func addSelfNode(ctx context.Context, m *netmodel.Model, cfg config.Config, logger *slog.Logger) error {
	self := cfg.Self

	if self.Auto {
		node, err := m.AddSelfNodeAuto(ctx, self.Name, self.Elevation)
		if err == nil {
			fillSelfAddress(ctx, node, cfg, logger)
			return nil
		}
		if !errors.Is(err, geoip.ErrNoServiceAvailable) {
			return err
		}
		logger.Warn("location auto-detection failed, using fallback location", "error", err)
	}

	node, err := m.AddNode(netmodel.NodeSpec{
		Name:      self.Name,
		Lat:       self.FallbackLat,
		Lon:       self.FallbackLon,
		Elevation: self.Elevation,
		Address:   pinger.UnsetAddress,
		Self:      true,
	})
	if err != nil {
		return err
	}
	fillSelfAddress(ctx, node, cfg, logger)
	return nil
}

func fillSelfAddress(ctx context.Context, node *model.Node, cfg config.Config, logger *slog.Logger) {
	if node.Address != "" && node.Address != pinger.UnsetAddress {
		return
	}
	mapped, err := stunaddr.Discover(ctx, cfg.Locate.STUNServers, 5*time.Second)
	if err != nil {
		logger.Warn("STUN discovery failed", "error", err)
		return
	}
	node.Address = stunaddr.Host(mapped)
	logger.Info("filled self address via STUN", "address", node.Address)
}

func newProber(cfg config.Config, logger *slog.Logger, collector *observability.Collector) *pinger.Pinger {
	return pinger.New(pinger.Options{
		Count:      cfg.Probe.Count,
		Timeout:    cfg.PingTimeout(),
		FallbackMs: cfg.Probe.FallbackLatencyMs,
		Logger:     logger,
		Metrics:    collector,
	})
}

func printResults(results []model.ConnectionResult) {
	for _, r := range results {
		fmt.Printf("%s <-> %s\n", r.From, r.To)
		fmt.Printf("  physical: %.2f km  worst latency: %.1f ms  factor: %.2fx  effort: %.2f\n",
			r.PhysicalKm, r.WorstLatencyMs, r.EffortFactor, r.EffortDistance)
	}

	s := report.Summarize(results)
	if s.Count > 0 {
		fmt.Printf("%d connections: physical %.2f km, effort %.2f, factor %.2f..%.2f (avg %.2f)\n",
			s.Count, s.TotalPhysicalKm, s.TotalEffortDist, s.MinEffortFactor, s.MaxEffortFactor, s.AvgEffortFactor)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, errors.New("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
