package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mereb-hub/finance-hub/internal/model"
	"github.com/mereb-hub/finance-hub/internal/notify"
)

// DispatchStore is the durable idempotency log. Append must be atomic:
// it reports false when the month's entry already exists.
type DispatchStore interface {
	FindForMonth(ctx context.Context, logType, monthKey string) (*model.DispatchLogEntry, error)
	Append(ctx context.Context, entry model.DispatchLogEntry) (bool, error)
}

type SummarySource interface {
	BudgetSummary(ctx context.Context) (*model.BudgetSummary, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, summary model.BudgetSummary) (string, error)
}

type ReportSender interface {
	Transmit(ctx context.Context, content string) (bool, error)
	Recipient() string
}

// Dispatcher guarantees at most one monthly report per calendar month.
// It is evaluated reactively: once at session start and whenever the
// ledger signals a mutation, never on a clock. The durable log row, not
// memory, is the idempotency token, so the guarantee survives restarts.
type Dispatcher struct {
	summaries SummarySource
	logs      DispatchStore
	generator ReportGenerator
	sender    ReportSender
	sink      notify.Sink
	now       func() time.Time
	log       zerolog.Logger

	trigger chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func NewDispatcher(
	summaries SummarySource,
	logs DispatchStore,
	generator ReportGenerator,
	sender ReportSender,
	sink notify.Sink,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		summaries: summaries,
		logs:      logs,
		generator: generator,
		sender:    sender,
		sink:      sink,
		now:       time.Now,
		log:       log,
		trigger:   make(chan struct{}, 1),
	}
}

// WithClock overrides the time source; used by tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

func (d *Dispatcher) Name() string {
	return "MonthlyReportDispatcher"
}

// Trigger requests an evaluation. Coalesces: a pending trigger absorbs
// further ones until the loop drains it.
func (d *Dispatcher) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("report dispatcher already running")
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.running = true
	d.mu.Unlock()

	go d.loop(ctx)
	return nil
}

func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	cancel := d.cancel
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

func (d *Dispatcher) loop(ctx context.Context) {
	if err := d.Evaluate(ctx); err != nil {
		d.log.Error().Err(err).Msg("report evaluation failed")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.trigger:
			if err := d.Evaluate(ctx); err != nil {
				d.log.Error().Err(err).Msg("report evaluation failed")
			}
		}
	}
}

// Evaluate runs one dispatch cycle. A failed generation or transmission
// leaves no log entry, so the next trigger retries within the same
// month; there is no backoff and no permanent failure state.
func (d *Dispatcher) Evaluate(ctx context.Context) error {
	monthKey := model.MonthKey(d.now())

	existing, err := d.logs.FindForMonth(ctx, model.LogTypeMonthlyReportDispatch, monthKey)
	if err != nil {
		return fmt.Errorf("check dispatch log: %w", err)
	}
	if existing != nil {
		return nil
	}

	summary, err := d.summaries.BudgetSummary(ctx)
	if err != nil {
		return fmt.Errorf("load budget summary: %w", err)
	}
	if summary.TotalProjects == 0 {
		return nil
	}

	d.sink.Send("Institutional Report", "Generating monthly financial intelligence for executive dispatch...")

	content, err := d.generator.Generate(ctx, *summary)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	if content == "" {
		d.log.Warn().Str("month", monthKey).Msg("report generation yielded no content, will retry on next evaluation")
		return nil
	}

	sent, err := d.sender.Transmit(ctx, content)
	if err != nil {
		return fmt.Errorf("transmit report: %w", err)
	}
	if !sent {
		d.log.Warn().Str("month", monthKey).Msg("report transmission not confirmed, will retry on next evaluation")
		return nil
	}

	inserted, err := d.logs.Append(ctx, model.DispatchLogEntry{
		ID:        model.DispatchLogID(monthKey),
		Type:      model.LogTypeMonthlyReportDispatch,
		Timestamp: d.now(),
		Recipient: d.sender.Recipient(),
	})
	if err != nil {
		return fmt.Errorf("append dispatch log: %w", err)
	}
	if !inserted {
		// Another session won the month; its entry stands.
		d.log.Info().Str("month", monthKey).Msg("dispatch log entry already written by a concurrent session")
		return nil
	}

	d.sink.Send("Dispatch Successful", fmt.Sprintf("Monthly report successfully transmitted to %s", d.sender.Recipient()))
	d.log.Info().Str("month", monthKey).Str("recipient", d.sender.Recipient()).Msg("monthly report dispatched")
	return nil
}
