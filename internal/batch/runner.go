// Package batch drives the download pipeline over a full identifier
// list: sequencing, concurrency control, cancellation, outcome
// aggregation and status publication.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
	"github.com/ecomm-asset-tools/syndicator/internal/download"
	"github.com/ecomm-asset-tools/syndicator/internal/events"
	"github.com/ecomm-asset-tools/syndicator/internal/identifiers"
	"github.com/ecomm-asset-tools/syndicator/internal/retailer"
)

// State is the run lifecycle: Idle → Running → Completed/Stopped/Failed.
type State string

const (
	Idle      State = "idle"
	Running   State = "running"
	Completed State = "completed"
	Stopped   State = "stopped"
	Failed    State = "failed"
)

// ErrAlreadyRunning rejects a start request while a batch is active; only
// one run may exist at a time.
var ErrAlreadyRunning = errors.New("a batch is already running")

// Status is a point-in-time snapshot of the run, safe to serialize for
// the status boundary.
type Status struct {
	State       State             `json:"state"`
	Running     bool              `json:"running"`
	Total       int               `json:"total_items"`
	Completed   int               `json:"completed_items"`
	CurrentItem string            `json:"current_item"`
	Logs        []events.LogEntry `json:"logs"`
	Succeeded   []string          `json:"succeeded_bmns"`
	Restricted  []string          `json:"restricted_bmns"`
	NotFound    []string          `json:"not_found_bmns"`
}

// session is implemented by sources that hold a stateful connection (the
// browser portal). Open failure is orchestration-fatal.
type session interface {
	Open(ctx context.Context) error
	Close()
}

// Options wires a Runner.
type Options struct {
	Source   catalog.Source
	Executor *download.Executor
	Events   events.Publisher

	// Workers selects the execution shape: 1 processes items strictly
	// sequentially (required for the browser source), >1 runs a bounded
	// worker pool (valid for the stateless API source).
	Workers int

	// Pace is the delay between items in the sequential shape.
	Pace time.Duration

	LogCapacity int
}

// Runner owns all mutable run state. Handlers read it only through
// Snapshot; mutation happens under the runner's mutex.
type Runner struct {
	source   catalog.Source
	executor *download.Executor
	events   events.Publisher
	workers  int
	pace     time.Duration

	mu         sync.Mutex
	state      State
	total      int
	completed  int
	current    string
	succeeded  []string
	restricted []string
	notFound   []string
	cancel     context.CancelFunc
	done       chan struct{}

	logs *events.Ring
}

func New(opts Options) *Runner {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	ev := opts.Events
	if ev == nil {
		ev = noopPublisher{}
	}
	return &Runner{
		source:   opts.Source,
		executor: opts.Executor,
		events:   ev,
		workers:  workers,
		pace:     opts.Pace,
		state:    Idle,
		logs:     events.NewRing(opts.LogCapacity),
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// Snapshot returns the current run state for the status boundary.
func (r *Runner) Snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		State:       r.state,
		Running:     r.state == Running,
		Total:       r.total,
		Completed:   r.completed,
		CurrentItem: r.current,
		Logs:        r.logs.Snapshot(),
		Succeeded:   append([]string(nil), r.succeeded...),
		Restricted:  append([]string(nil), r.restricted...),
		NotFound:    append([]string(nil), r.notFound...),
	}
}

// Start launches a run in the background. Rejected with
// ErrAlreadyRunning while a batch is active.
func (r *Runner) Start(items []identifiers.Record, rules []retailer.Rule) error {
	r.mu.Lock()
	if r.state == Running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.state = Running
	r.total = len(items)
	r.completed = 0
	r.current = ""
	r.succeeded = nil
	r.restricted = nil
	r.notFound = nil
	r.cancel = cancel
	r.done = make(chan struct{})
	r.logs.Reset()
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		r.run(ctx, items, rules)
	}()
	return nil
}

// Stop requests cooperative cancellation: the in-flight item finishes,
// then the run halts without scheduling further items. Returns whether a
// run was actually active. Idempotent.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Running || r.cancel == nil {
		return false
	}
	r.cancel()
	return true
}

// Wait blocks until the current run (if any) finishes and returns the
// final state.
func (r *Runner) Wait() State {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) run(ctx context.Context, items []identifiers.Record, rules []retailer.Rule) {
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		names = append(names, rule.Name())
	}
	r.logf("info", "Starting batch download for %d items. Retailers: %v", len(items), names)

	if s, ok := r.source.(session); ok {
		if err := s.Open(ctx); err != nil {
			// No session means no item can be processed at all.
			r.logf("error", "Could not establish source session: %v", err)
			r.finish(Failed)
			return
		}
		defer s.Close()
	}

	if r.workers > 1 {
		r.runPool(ctx, items, rules)
	} else {
		r.runSequential(ctx, items, rules)
	}

	final := Completed
	if ctx.Err() != nil {
		r.logf("warning", "Download process stopped by user.")
		final = Stopped
	}
	r.finish(final)
}

func (r *Runner) runSequential(ctx context.Context, items []identifiers.Record, rules []retailer.Rule) {
	for i, item := range items {
		if ctx.Err() != nil {
			return
		}
		r.beginItem(i, item)
		outcome := r.processItem(ctx, item, rules)
		r.completeItem(i, item, outcome)

		if r.pace > 0 && i < len(items)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.pace):
			}
		}
	}
}

func (r *Runner) runPool(ctx context.Context, items []identifiers.Record, rules []retailer.Rule) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.workers)

	for i, item := range items {
		// Cancellation is checked at the item boundary: nothing new is
		// scheduled after a stop request.
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(idx int, item identifiers.Record) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				return
			}
			r.beginItem(idx, item)
			outcome := r.processItem(ctx, item, rules)
			r.completeItem(idx, item, outcome)
		}(i, item)
	}

	wg.Wait()
}

type outcome struct {
	succeeded  bool
	restricted bool
}

// processItem runs one item through every requested retailer. All
// per-item errors are converted into the outcome classification here;
// nothing below this boundary terminates the batch.
func (r *Runner) processItem(ctx context.Context, item identifiers.Record, rules []retailer.Rule) outcome {
	var out outcome
	for _, rule := range rules {
		if ctx.Err() != nil {
			return out
		}

		saveID := rule.SaveID(item)
		if saveID == "" {
			r.logf("warning", "Skipping %s for BMN %s: missing save identifier.", rule.Name(), item.BMN)
			continue
		}

		keywords := make([]string, 0, len(rule.Slots()))
		for _, slot := range rule.Slots() {
			keywords = append(keywords, slot.Keyword)
		}

		grouped, err := r.source.Assets(ctx, item.BMN, keywords)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				return out
			case errors.Is(err, catalog.ErrNotFound):
				r.logf("warning", "BMN %s not found in catalog.", item.BMN)
			case errors.Is(err, catalog.ErrRestricted):
				r.logf("warning", "BMN %s contains restricted assets. Skipping download.", item.BMN)
				out.restricted = true
			default:
				r.logf("error", "Catalog error for BMN %s: %v", item.BMN, err)
			}
			continue
		}

		if r.downloadPlan(ctx, rule, saveID, item, grouped) {
			out.succeeded = true
		}
	}
	return out
}

// downloadPlan executes a retailer's selection plan for one item and
// reports whether at least one asset was written.
func (r *Runner) downloadPlan(ctx context.Context, rule retailer.Rule, saveID string, item identifiers.Record, grouped map[string][]catalog.Asset) bool {
	plan := rule.Plan(grouped)
	if len(plan) == 0 {
		r.logf("warning", "No suitable %s assets for BMN %s based on retailer logic.", rule.Name(), item.BMN)
		return false
	}

	succeeded := false
	for _, p := range plan {
		relPaths := rule.Paths(saveID, p)
		if len(relPaths) == 0 {
			r.logf("warning", "No destination mapping for %s id %s; skipping %q.", rule.Name(), saveID, p.SlotLabel)
			continue
		}

		dests := make([]string, 0, len(relPaths))
		for _, rel := range relPaths {
			dests = append(dests, filepath.Join(rule.Root(), rel))
		}

		if err := r.executor.Download(ctx, p.Asset.URL, dests); err != nil {
			// A failed transfer skips this asset only; sibling slots and
			// subsequent items are unaffected.
			r.logf("error", "Download failed for %s %q (BMN %s): %v", rule.Name(), p.SlotLabel, item.BMN, err)
			continue
		}

		succeeded = true
		for _, dest := range dests {
			r.logf("info", "Saved %s %q to: %s", rule.Name(), p.SlotLabel, dest)
		}
	}
	return succeeded
}

func (r *Runner) beginItem(idx int, item identifiers.Record) {
	r.mu.Lock()
	r.current = item.BMN
	completed, total := r.completed, r.total
	r.mu.Unlock()

	r.logf("info", "--- Item %d/%d | BMN: %s ---", idx+1, total, item.BMN)
	r.events.Publish(events.Event{Name: events.NameProgress, Data: events.Progress{
		Completed:   completed,
		Total:       total,
		CurrentItem: item.BMN,
	}})
}

func (r *Runner) completeItem(idx int, item identifiers.Record, out outcome) {
	r.mu.Lock()
	switch {
	case out.succeeded:
		r.succeeded = append(r.succeeded, item.BMN)
	case out.restricted:
		r.restricted = append(r.restricted, item.BMN)
	default:
		r.notFound = append(r.notFound, item.BMN)
	}
	r.completed++
	completed, total := r.completed, r.total
	r.mu.Unlock()

	r.events.Publish(events.Event{Name: events.NameItemCompleted, Data: events.ItemCompleted{
		Index:     idx,
		BMN:       item.BMN,
		Completed: completed,
		Total:     total,
	}})
	r.events.Publish(events.Event{Name: events.NameProgress, Data: events.Progress{
		Completed:   completed,
		Total:       total,
		CurrentItem: item.BMN,
	}})
}

// finish moves the run to its terminal state and emits the end-of-run
// summary, whatever was completed so far.
func (r *Runner) finish(final State) {
	r.mu.Lock()
	r.state = final
	r.cancel = nil
	r.current = ""
	summary := events.Summary{
		SucceededCount: len(r.succeeded),
		RestrictedBMNs: append([]string(nil), r.restricted...),
		NotFoundBMNs:   append([]string(nil), r.notFound...),
	}
	completed, total := r.completed, r.total
	r.mu.Unlock()

	if len(summary.NotFoundBMNs) > 0 {
		r.logf("warning", "SUMMARY: %d BMN(s) had no assets found: %v", len(summary.NotFoundBMNs), summary.NotFoundBMNs)
	}
	if len(summary.RestrictedBMNs) > 0 {
		r.logf("warning", "SUMMARY: %d BMN(s) had restricted assets: %v", len(summary.RestrictedBMNs), summary.RestrictedBMNs)
	}
	r.logf("info", "Batch finished (%s). Processed %d/%d items.", final, completed, total)

	r.events.Publish(events.Event{Name: events.NameSummary, Data: summary})
	r.events.Publish(events.Event{Name: events.NameComplete, Data: nil})
}

// logf records one operator-visible log line: bounded ring, slog, and
// the push channel.
func (r *Runner) logf(level, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	entry := events.NewLogEntry(level, message)
	r.logs.Append(entry)

	switch level {
	case "error":
		slog.Error(message)
	case "warning":
		slog.Warn(message)
	default:
		slog.Info(message)
	}

	r.events.Publish(events.Event{Name: events.NameLog, Data: entry})
}
