// Package pinger measures round-trip latency to an address by invoking the
// operating system's ping utility and parsing its output. Measurement never
// fails outward: every failure mode substitutes a defined value and reports
// which branch was taken.
package pinger

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"effortmap/internal/observability"
)

// UnsetAddress is the sentinel for "no address"; measuring it returns zero
// latency without spawning a process.
const UnsetAddress = "0.0.0.0"

const (
	DefaultCount      = 4
	DefaultTimeout    = 5 * time.Second
	DefaultFallbackMs = 999.0
)

// Reason tags which branch produced a measurement, so callers and tests can
// tell a parsed average from a substituted value without scraping logs.
type Reason string

const (
	ReasonMeasured    Reason = "measured"
	ReasonNoAddress   Reason = "no_address"
	ReasonEstimated   Reason = "estimated"
	ReasonExecFailure Reason = "exec_failure"
	ReasonTimeout     Reason = "timeout"
	ReasonUnsupported Reason = "unsupported_platform"
)

// Fallback reports whether the reason stands for a substituted value rather
// than a parsed or trivially-known one.
func (r Reason) Fallback() bool {
	switch r {
	case ReasonEstimated, ReasonExecFailure, ReasonTimeout, ReasonUnsupported:
		return true
	}
	return false
}

// Runner abstracts process invocation so probing can be unit-tested against
// canned ping output without touching the network.
type Runner interface {
	// CombinedOutput runs the command and returns its combined
	// stdout+stderr. The context bounds the whole invocation; on expiry
	// the process is killed.
	CombinedOutput(ctx context.Context, name string, args ...string) (string, error)
}

// OSRunner executes commands on the host via os/exec.
type OSRunner struct{}

func (OSRunner) CombinedOutput(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Pinger probes latency with a platform profile resolved at construction.
type Pinger struct {
	profile    Profile
	runner     Runner
	count      int
	timeout    time.Duration
	fallbackMs float64
	log        *slog.Logger
	metrics    *observability.Collector
}

// Options configures a Pinger. Zero fields take defaults; a zero GOOS means
// the host's runtime.GOOS.
type Options struct {
	GOOS       string
	Runner     Runner
	Count      int
	Timeout    time.Duration
	FallbackMs float64
	Logger     *slog.Logger
	Metrics    *observability.Collector
}

// New builds a Pinger, resolving the platform profile once.
func New(opts Options) *Pinger {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	runner := opts.Runner
	if runner == nil {
		runner = OSRunner{}
	}
	count := opts.Count
	if count <= 0 {
		count = DefaultCount
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	fallback := opts.FallbackMs
	if fallback <= 0 {
		fallback = DefaultFallbackMs
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pinger{
		profile:    ProfileForGOOS(goos),
		runner:     runner,
		count:      count,
		timeout:    timeout,
		fallbackMs: fallback,
		log:        logger,
		metrics:    opts.Metrics,
	}
}

// FallbackMs returns the configured substitute latency.
func (p *Pinger) FallbackMs() float64 { return p.fallbackMs }

// Measure returns the average round-trip latency to address in
// milliseconds. It never returns an error:
//
//   - an empty or unset address yields 0.0 without spawning a process;
//   - an unsupported host platform yields the fallback value;
//   - a timed-out, failed, or non-zero-exit invocation yields the fallback
//     value;
//   - a clean exit whose output doesn't match the platform pattern yields
//     half the invocation's wall-clock time as a best-effort estimate.
//
// The returned Reason identifies which of these branches was taken.
func (p *Pinger) Measure(ctx context.Context, address string) (float64, Reason) {
	if address == "" || address == UnsetAddress {
		return 0.0, ReasonNoAddress
	}

	if !p.profile.Supported {
		p.log.Warn("unsupported platform, using fallback latency",
			"profile", p.profile.Name, "fallback_ms", p.fallbackMs)
		p.metrics.ProbeFallback(string(ReasonUnsupported))
		return p.fallbackMs, ReasonUnsupported
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.runner.CombinedOutput(ctx, "ping", p.profile.Args(p.count, address)...)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		p.log.Error("ping timed out", "address", address, "timeout", p.timeout)
		p.metrics.ProbeFallback(string(ReasonTimeout))
		return p.fallbackMs, ReasonTimeout
	}
	if err != nil {
		p.log.Warn("ping failed", "address", address, "error", err)
		p.metrics.ProbeFallback(string(ReasonExecFailure))
		return p.fallbackMs, ReasonExecFailure
	}

	if avg, ok := p.profile.Extract(out); ok {
		p.log.Debug("measured latency", "address", address, "latency_ms", avg)
		p.metrics.ObserveLatency(avg)
		return avg, ReasonMeasured
	}

	// Clean exit but unparseable output: estimate one-way-equivalent cost
	// as half the wall clock of the whole invocation. Best effort only.
	estimated := elapsed.Seconds() * 1000 / 2
	p.log.Warn("could not parse ping output, using estimated latency",
		"address", address, "estimated_ms", estimated)
	p.metrics.ProbeFallback(string(ReasonEstimated))
	return estimated, ReasonEstimated
}
