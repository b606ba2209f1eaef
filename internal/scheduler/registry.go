package scheduler

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mereb-hub/finance-hub/internal/model"
)

// Registry keeps one scheduler set per logged-in user. Sessions are
// independent: each gets its own auditor (and dispatcher for admins) so
// one user's dedup state never leaks into another's.
type Registry struct {
	newAuditor    func(user model.User) *Auditor
	newDispatcher func(user model.User) *Dispatcher
	log           zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

type session struct {
	manager    *Manager
	dispatcher *Dispatcher
}

func NewRegistry(
	newAuditor func(user model.User) *Auditor,
	newDispatcher func(user model.User) *Dispatcher,
	log zerolog.Logger,
) *Registry {
	return &Registry{
		newAuditor:    newAuditor,
		newDispatcher: newDispatcher,
		log:           log,
		sessions:      make(map[uuid.UUID]*session),
	}
}

// StartSession builds and starts the user's schedulers. A repeat login
// replaces the previous session, resetting the auditor's dedup set.
func (r *Registry) StartSession(ctx context.Context, user model.User) {
	r.EndSession(user.ID)

	manager := NewManager(r.log)
	sess := &session{manager: manager}

	manager.Register(r.newAuditor(user))
	if user.Role == model.RoleSuperAdmin {
		dispatcher := r.newDispatcher(user)
		manager.Register(dispatcher)
		sess.dispatcher = dispatcher
	}

	if err := manager.StartAll(ctx); err != nil {
		r.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("session schedulers failed to start")
		return
	}

	r.mu.Lock()
	r.sessions[user.ID] = sess
	r.mu.Unlock()

	r.log.Info().Str("user_id", user.ID.String()).Msg("session schedulers started")
}

// EndSession stops and discards the user's schedulers. No alert fires
// after teardown.
func (r *Registry) EndSession(userID uuid.UUID) {
	r.mu.Lock()
	sess, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if ok {
		sess.manager.StopAll()
		r.log.Info().Str("user_id", userID.String()).Msg("session schedulers stopped")
	}
}

// NotifyMutation fans a ledger mutation out to every live dispatcher.
func (r *Registry) NotifyMutation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sess := range r.sessions {
		if sess.dispatcher != nil {
			sess.dispatcher.Trigger()
		}
	}
}

// Shutdown tears down every live session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sessions = append(sessions, sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.manager.StopAll()
	}
}
