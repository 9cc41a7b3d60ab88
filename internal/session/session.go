// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session tracks pipeline runs across caller connections. A run
// keeps executing after its caller disconnects; subscribers can reconnect
// and replay the event history, and a completed run's report stays
// retrievable for a retention window.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meshintel/fit-engine/internal/pipeline"
	"github.com/meshintel/fit-engine/pkg/types"
)

var (
	// ErrNotFound reports an unknown or already purged session.
	ErrNotFound = errors.New("session not found")

	// ErrRunning reports a report request for a run still in flight.
	ErrRunning = errors.New("session still running")
)

// subscriberBuffer is the per-subscriber slack beyond the replayed history.
const subscriberBuffer = 64

// Persister stores completed runs. The session manager treats persistence
// as best-effort.
type Persister interface {
	SaveReport(ctx context.Context, report types.Report) error
}

// Manager owns the sessions of a process.
type Manager struct {
	seq    *pipeline.Sequencer
	store  Persister
	cfg    types.SessionConfig
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*session

	now func() time.Time
}

type session struct {
	id  string
	run *pipeline.Run

	mu       sync.Mutex
	history  []types.ProgressEvent
	subs     map[int]chan types.ProgressEvent
	nextSub  int
	done     bool
	report   types.Report
	finished time.Time
}

// NewManager builds a session manager. store may be nil to disable
// persistence.
func NewManager(seq *pipeline.Sequencer, store Persister, cfg types.SessionConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = types.DefaultConfig().Session.MaxHistory
	}
	if cfg.Retention <= 0 {
		cfg.Retention = types.DefaultConfig().Session.Retention
	}
	return &Manager{
		seq:      seq,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Start launches a run for the query and returns its session id. The run
// executes on a background context so a disconnecting caller cannot cancel
// it.
func (m *Manager) Start(query string, opts pipeline.Options) string {
	id := uuid.NewString()
	run := m.seq.Start(context.Background(), id, query, opts)

	sess := &session{
		id:   id,
		run:  run,
		subs: make(map[int]chan types.ProgressEvent),
	}
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	go m.pump(sess)
	m.purge()
	return id
}

// pump consumes the run's event stream, records history for replay, and
// fans events out to subscribers without ever blocking on a slow one.
func (m *Manager) pump(sess *session) {
	for ev := range sess.run.Events() {
		sess.mu.Lock()
		if len(sess.history) < m.cfg.MaxHistory {
			sess.history = append(sess.history, ev)
		}
		for id, ch := range sess.subs {
			select {
			case ch <- ev:
			default:
				m.logger.Warn("subscriber lagging, dropping event",
					zap.String("session", sess.id), zap.Int("subscriber", id))
			}
		}
		sess.mu.Unlock()
	}

	report := sess.run.Wait()

	sess.mu.Lock()
	sess.done = true
	sess.report = report
	sess.finished = m.now()
	for _, ch := range sess.subs {
		close(ch)
	}
	sess.subs = make(map[int]chan types.ProgressEvent)
	sess.mu.Unlock()

	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.store.SaveReport(ctx, report); err != nil {
			m.logger.Warn("persisting run failed", zap.String("session", sess.id), zap.Error(err))
		}
	}
}

// Subscribe attaches to a session's event stream. Buffered history is
// replayed first, then live events follow in order; for a completed run the
// channel closes after the replay. The returned cancel function detaches
// the subscriber.
func (m *Manager) Subscribe(id string) (<-chan types.ProgressEvent, func(), error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	ch := make(chan types.ProgressEvent, len(sess.history)+subscriberBuffer)
	for _, ev := range sess.history {
		ch <- ev
	}
	if sess.done {
		close(ch)
		return ch, func() {}, nil
	}

	subID := sess.nextSub
	sess.nextSub++
	sess.subs[subID] = ch

	cancel := func() {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if _, live := sess.subs[subID]; live {
			delete(sess.subs, subID)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Report returns a completed session's report.
func (m *Manager) Report(id string) (types.Report, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return types.Report{}, ErrNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.done {
		return types.Report{}, ErrRunning
	}
	return sess.report, nil
}

// purge drops sessions whose retention window has elapsed.
func (m *Manager) purge() {
	cutoff := m.now().Add(-m.cfg.Retention)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		sess.mu.Lock()
		expired := sess.done && sess.finished.Before(cutoff)
		sess.mu.Unlock()
		if expired {
			delete(m.sessions, id)
		}
	}
}
