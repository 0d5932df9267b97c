package settlement

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Trigger sources recorded in the cycle journal
const (
	TriggerInterval = "interval"
	TriggerNudge    = "nudge"
)

// Runner drives settlement cycles from a timer and from external nudges.
// The nudge mailbox holds a single slot: nudges arriving while a cycle runs
// coalesce into one follow-up cycle instead of queueing.
type Runner struct {
	logger   *slog.Logger
	cycle    *Cycle
	interval time.Duration

	nudges   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	complete chan struct{}
	deployed chan DeployedContract
}

func NewRunner(logger *slog.Logger, cycle *Cycle, interval time.Duration) *Runner {
	return &Runner{
		logger:   logger,
		cycle:    cycle,
		interval: interval,
		nudges:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		complete: make(chan struct{}, 1),
		deployed: make(chan DeployedContract, 16),
	}
}

// Nudge requests a settlement cycle. It never blocks; a nudge that finds
// one already queued is absorbed by it.
func (r *Runner) Nudge() {
	select {
	case r.nudges <- struct{}{}:
	default:
	}
}

// CycleComplete signals after each finished cycle. The channel holds one
// slot; while a signal sits unread, later completions are dropped.
func (r *Runner) CycleComplete() <-chan struct{} {
	return r.complete
}

// Deployed streams contracts whose deployment settled, for the event
// listener to register.
func (r *Runner) Deployed() <-chan DeployedContract {
	return r.deployed
}

// Start runs settlement cycles until Stop is called or the context is
// canceled. One cycle runs at a time.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Starting settlement runner", "interval", r.interval)
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping settlement runner")
			return
		case <-r.stop:
			r.logger.Info("Stopping settlement runner")
			return
		case <-ticker.C:
			r.runOnce(ctx, TriggerInterval)
		case <-r.nudges:
			r.runOnce(ctx, TriggerNudge)
		}
	}
}

// Stop asks the runner to exit once the current cycle, if any, has
// finished. Unlike canceling the Start context it does not interrupt
// in-flight gateway calls, so a submitted transaction still gets its
// outcome recorded. Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Done closes after Start has returned
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) runOnce(ctx context.Context, triggeredBy string) {
	result, err := r.cycle.Run(ctx, triggeredBy)
	if err != nil {
		r.logger.Error("Settlement cycle aborted", "triggered_by", triggeredBy, "error", err)
		return
	}

	for _, d := range result.Deployed {
		select {
		case r.deployed <- d:
		default:
			r.logger.Warn("Deployed contract signal dropped, listener channel full",
				"contract_id", d.ContractID,
				"address", d.Address,
			)
		}
	}

	select {
	case r.complete <- struct{}{}:
	default:
	}
}
