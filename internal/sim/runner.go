package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher receives every successful snapshot, typically the SQLite
// history store. Publish failures are logged and do not fault the run -
// persistence is a collaborator concern, not part of the tick contract.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// RunStats summarizes one driving-loop run.
type RunStats struct {
	Ticks    int `json:"ticks"`
	Failures int `json:"failures"`
}

// Runner is the driving loop: one pipeline evaluation per tick at a fixed
// cadence. Each tick is independent - the only cross-tick state is the
// rolling history window and the tick clock.
//
// Thread-safety model:
//   - Run(): call from exactly one goroutine
//   - UpdateConfig(): safe from any goroutine (control-surface updates
//     land between ticks)
//   - History(): safe from any goroutine
type Runner struct {
	mu  sync.Mutex
	cfg PipelineConfig

	clock    *Clock
	history  *TickHistory
	pub      Publisher
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
	token    string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPublisher attaches a snapshot publisher (history store).
func WithPublisher(p Publisher) RunnerOption {
	return func(r *Runner) { r.pub = p }
}

// WithInterval sets the tick cadence. Zero means free-running: the next
// tick starts as soon as the previous one finishes.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.interval = d }
}

// WithHistoryCapacity sizes the rolling trend window.
func WithHistoryCapacity(n int) RunnerOption {
	return func(r *Runner) { r.history = NewTickHistory(n) }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithNowFunc overrides the wall-clock source (for deterministic tests).
func WithNowFunc(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithTokenGenerator overrides the run-token generator (for deterministic
// tests). Defaults to UUIDv7.
func WithTokenGenerator(g TokenGenerator) RunnerOption {
	return func(r *Runner) { r.token = g.Generate() }
}

// NewRunner creates a driving loop around an initial config.
func NewRunner(cfg PipelineConfig, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:     cfg,
		clock:   NewClock(),
		history: NewTickHistory(DefaultHistoryWindow),
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.token == "" {
		r.token = UUIDv7Generator{}.Generate()
	}
	return r
}

// Token is the run token stamped on every snapshot of this run.
func (r *Runner) Token() string {
	return r.token
}

// History exposes the rolling trend window for presentation readers.
func (r *Runner) History() *TickHistory {
	return r.history
}

// UpdateConfig replaces the config used by subsequent ticks. The config
// in flight for the current tick is unaffected - each evaluation sees an
// immutable config.
func (r *Runner) UpdateConfig(cfg PipelineConfig) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

// Tick performs one evaluation: advance the clock, evaluate, record.
//
// On failure the tick seq is still consumed (failed ticks are visible as
// gaps) but nothing is appended or published - a faulted tick leaves no
// partial state anywhere.
func (r *Runner) Tick(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()

	seq := r.clock.Next()
	res, err := Evaluate(cfg)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Seq:      seq,
		RunToken: r.token,
		At:       r.now(),
		Result:   *res,
	}
	r.history.Append(snap)

	if r.pub != nil {
		if err := r.pub.Publish(ctx, snap); err != nil {
			r.log.Error("snapshot publish failed", "seq", seq, "error", err)
		}
	}
	return snap, nil
}

// Run ticks until ctx is cancelled or maxTicks successful-or-failed ticks
// have elapsed (maxTicks <= 0 runs until cancelled).
//
// A failed tick is logged and counted, then the loop simply tries again
// next tick - the config may have changed in the meantime. There is no
// retry within a tick.
func (r *Runner) Run(ctx context.Context, maxTicks int) (RunStats, error) {
	var stats RunStats

	var ticker *time.Ticker
	if r.interval > 0 {
		ticker = time.NewTicker(r.interval)
		defer ticker.Stop()
	}

	for {
		snap, err := r.Tick(ctx)
		stats.Ticks++
		if err != nil {
			stats.Failures++
			r.log.Error("tick failed", "tick", r.clock.Current(), "error", err)
		} else {
			r.log.Debug("tick",
				"seq", snap.Seq,
				"supply_temp_c", snap.Result.SupplyAir.DryBulbC,
				"total_coil_load_kw", snap.Result.TotalCoilLoadKW,
			)
		}

		if maxTicks > 0 && stats.Ticks >= maxTicks {
			return stats, nil
		}

		if ticker == nil {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-ticker.C:
		}
	}
}
