package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Worker is a background process with an explicit lifecycle.
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// Manager owns the workers of one session and tears them down together.
type Manager struct {
	log zerolog.Logger

	mu      sync.Mutex
	workers []Worker
	running bool
	cancel  context.CancelFunc
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log}
}

func (m *Manager) Register(worker Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, worker)
}

func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("workers already running")
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	workers := m.workers
	m.mu.Unlock()

	for _, worker := range workers {
		if err := worker.Start(ctx); err != nil {
			m.log.Error().Err(err).Str("worker", worker.Name()).Msg("worker failed to start")
			continue
		}
		m.log.Debug().Str("worker", worker.Name()).Msg("worker started")
	}
	return nil
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	workers := m.workers
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, worker := range workers {
		if err := worker.Stop(); err != nil {
			m.log.Error().Err(err).Str("worker", worker.Name()).Msg("worker failed to stop")
			continue
		}
		m.log.Debug().Str("worker", worker.Name()).Msg("worker stopped")
	}
}
