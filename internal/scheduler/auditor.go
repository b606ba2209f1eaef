package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mereb-hub/finance-hub/internal/model"
	"github.com/mereb-hub/finance-hub/internal/notify"
)

// ProjectLister is the read-only view of project state the auditor
// observes; it never mutates ledger data.
type ProjectLister interface {
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
}

// Auditor scans the session owner's projects for overdue, still-open
// work and raises at most one alert per project per session. The dedup
// set lives on the instance and dies with it: a fresh session notifies
// once more, never twice within the same session.
type Auditor struct {
	owner    model.User
	projects ProjectLister
	sink     notify.Sink
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu       sync.Mutex
	notified map[uuid.UUID]struct{}
	running  bool
	cancel   context.CancelFunc
}

func NewAuditor(owner model.User, projects ProjectLister, sink notify.Sink, interval time.Duration, log zerolog.Logger) *Auditor {
	return &Auditor{
		owner:    owner,
		projects: projects,
		sink:     sink,
		interval: interval,
		now:      time.Now,
		log:      log,
		notified: make(map[uuid.UUID]struct{}),
	}
}

// WithClock overrides the time source; used by tests.
func (a *Auditor) WithClock(now func() time.Time) *Auditor {
	a.now = now
	return a
}

func (a *Auditor) Name() string {
	return "DeadlineAuditor"
}

func (a *Auditor) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("deadline auditor already running")
	}
	ctx, a.cancel = context.WithCancel(ctx)
	a.running = true
	a.mu.Unlock()

	go a.pollLoop(ctx)
	return nil
}

func (a *Auditor) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

func (a *Auditor) pollLoop(ctx context.Context) {
	// One immediate pass on activation, then the fixed interval.
	a.Sweep(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Sweep(ctx)
		}
	}
}

// Sweep runs one audit pass. Delivery failures are swallowed and the
// project is still marked notified: at-most-once, best-effort.
func (a *Auditor) Sweep(ctx context.Context) {
	projects, err := a.projects.ListByOwner(ctx, a.owner.ID)
	if err != nil {
		a.log.Error().Err(err).Msg("audit sweep failed to list projects")
		return
	}

	now := a.now()
	for i := range projects {
		project := &projects[i]
		if !project.Overdue(now) {
			continue
		}
		if a.alreadyNotified(project.ID) {
			continue
		}

		a.sink.Send(
			"Institutional Deadline Alert",
			fmt.Sprintf("Project %q is past its operational deadline. Immediate update required.", project.Title),
		)
		a.markNotified(project.ID)
		a.log.Info().
			Str("project_id", project.ID.String()).
			Time("deadline", project.Deadline).
			Msg("overdue project alert raised")
	}
}

func (a *Auditor) alreadyNotified(id uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.notified[id]
	return ok
}

func (a *Auditor) markNotified(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notified[id] = struct{}{}
}
