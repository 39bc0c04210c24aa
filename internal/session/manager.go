// Package session runs imports against the shared hardware session and
// keeps their results around for the HTTP and WebSocket handlers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/limit-importer/backend/internal/engine"
	"github.com/limit-importer/backend/internal/hardware"
	"github.com/limit-importer/backend/internal/metrics"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/parser"
	"github.com/limit-importer/backend/internal/reconcile"
	"github.com/limit-importer/backend/internal/report"
	"github.com/limit-importer/backend/internal/runlog"
	"go.uber.org/zap"
)

// MaxImports limits how many finished imports are kept in memory.
const MaxImports = 10

// ImportMaxAge is how long to keep an import after its last access.
const ImportMaxAge = 30 * time.Minute

// ImportKeepAliveWindow protects recently used imports from eviction.
const ImportKeepAliveWindow = 5 * time.Minute

// ErrNotFound is returned for unknown import IDs.
var ErrNotFound = errors.New("import not found")

// ErrNotReconcilable is returned for imports that failed before matching.
var ErrNotReconcilable = errors.New("import has nothing to reconcile")

// Auditor persists run logs and outcomes. *storage.AuditStore implements it.
type Auditor interface {
	Sink(importID string) runlog.Sink
	RecordOutcome(ctx context.Context, importID string, out *models.Outcome) error
}

// Config wires a Manager.
type Config struct {
	Hardware   hardware.Session
	Registry   *parser.Registry  // defaults to the global registry
	LinkPolicy engine.LinkPolicy // defaults to engine.CapabilityPolicy
	Audit      Auditor           // optional
	Metrics    *metrics.Recorder // optional
	Logger     *zap.Logger       // optional
	MaxImports int               // defaults to MaxImports
	MaxAge     time.Duration     // janitor cutoff, defaults to ImportMaxAge
}

// Manager owns the hardware session and every import run against it.
//
// The hardware session is not reentrant, so every engine call (index,
// match, apply, reconcile apply) holds hwMu.
type Manager struct {
	mu      sync.RWMutex
	imports map[string]*ImportState

	hwMu       sync.Mutex
	hw         hardware.Session
	registry   *parser.Registry
	policy     engine.LinkPolicy
	audit      Auditor
	metrics    *metrics.Recorder
	logger     *zap.Logger
	maxImports int
	maxAge     time.Duration
}

// ImportState holds one import run and its reconciliation flow.
type ImportState struct {
	Session      *models.ImportSession
	Index        *models.HierarchyIndex
	Controller   *reconcile.Controller
	Log          *runlog.Memory
	LastAccessed time.Time
}

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		imports:    make(map[string]*ImportState),
		hw:         cfg.Hardware,
		registry:   cfg.Registry,
		policy:     cfg.LinkPolicy,
		audit:      cfg.Audit,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		maxImports: cfg.MaxImports,
		maxAge:     cfg.MaxAge,
	}
	if m.registry == nil {
		m.registry = parser.GetGlobalRegistry()
	}
	if m.policy == nil {
		m.policy = engine.CapabilityPolicy{}
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.maxImports <= 0 {
		m.maxImports = MaxImports
	}
	if m.maxAge <= 0 {
		m.maxAge = ImportMaxAge
	}
	return m
}

// StartImport loads the limit file at filePath and runs it against the
// hardware. The run is synchronous; the returned session is final. A limit
// file that cannot be loaded aborts before indexing and is returned as a
// *parser.FileError together with the failed session.
func (m *Manager) StartImport(fileID, fileName, filePath string) (*models.ImportSession, error) {
	m.cleanupOldImportsIfNeeded()

	id := uuid.New().String()
	sess := models.NewImportSession(id, fileID, fileName)
	mem := runlog.NewMemory()
	sink := runlog.Sink(mem)
	if m.audit != nil {
		sink = runlog.Multi{mem, m.audit.Sink(id)}
	}
	state := &ImportState{Session: sess, Log: mem, LastAccessed: time.Now()}

	m.mu.Lock()
	m.imports[id] = state
	m.mu.Unlock()

	log := m.logger.With(zap.String("import", shortID(id)), zap.String("file", fileName))
	runlog.Appendf(sink, "Import %s of %s started", shortID(id), fileName)

	entries, err := m.registry.Load(filePath, fileName)
	if err != nil {
		log.Warn("Limit file rejected", zap.Error(err))
		runlog.Appendf(sink, "Limit file rejected: %v", err)
		m.finish(id, func(s *ImportState) {
			s.Session.Status = models.ImportStatusError
			s.Session.Error = err.Error()
		})
		m.metrics.ObserveImport(models.ImportStatusError, 0)
		return m.snapshot(id), err
	}

	m.update(id, func(s *ImportState) {
		s.Session.Status = models.ImportStatusApplying
		s.Session.EntryCount = len(entries)
	})

	start := time.Now()
	eng := engine.New(m.hw,
		engine.WithLinkPolicy(m.policy),
		engine.WithRunLog(sink),
		engine.WithLogger(log))

	m.hwMu.Lock()
	idx, out := eng.Run(entries)
	m.hwMu.Unlock()
	elapsed := time.Since(start)

	if m.audit != nil {
		if err := m.audit.RecordOutcome(context.Background(), id, out); err != nil {
			log.Warn("Outcome not persisted", zap.Error(err))
		}
	}
	m.metrics.ObserveOutcome(out)

	ctrl := reconcile.NewController(reconcile.NewState(out), &lockedApplier{m: m, applier: eng.Applier()}, sink, log)
	ctrl.Subscribe(func(s reconcile.State) { m.onReconcile(id, s) })

	status := models.ImportStatusComplete
	if !out.Complete() {
		status = models.ImportStatusReconciling
	}
	m.finish(id, func(s *ImportState) {
		s.Index = idx
		s.Controller = ctrl
		s.Session.Status = status
		s.Session.ResultCount = idx.Len()
		s.Session.PairedCount = len(out.Paired)
		s.Session.ProcessingTimeMs = elapsed.Milliseconds()
	})
	m.metrics.ObserveImport(status, elapsed.Seconds())

	log.Info("Import finished",
		zap.String("status", string(status)),
		zap.Int("entries", len(entries)),
		zap.Int("paired", len(out.Paired)),
		zap.Duration("elapsed", elapsed))
	return m.snapshot(id), nil
}

// onReconcile keeps the session counters and the persisted outcome in
// step with the reconcile flow.
func (m *Manager) onReconcile(id string, s reconcile.State) {
	switch s.Phase {
	case reconcile.PhasePaired:
		m.metrics.ObserveReconcile(true)
		if m.audit != nil {
			if err := m.audit.RecordOutcome(context.Background(), id, s.Outcome()); err != nil {
				m.logger.Warn("Reconciled outcome not persisted", zap.String("import", shortID(id)), zap.Error(err))
			}
		}
	case reconcile.PhaseFailed:
		m.metrics.ObserveReconcile(false)
	}
	m.update(id, func(st *ImportState) {
		st.Session.PairedCount = len(s.Paired)
		if s.Complete() {
			st.Session.Status = models.ImportStatusComplete
		}
	})
}

// lockedApplier serialises reconcile applies with every other hardware call.
type lockedApplier struct {
	m       *Manager
	applier *engine.Applier
}

func (a *lockedApplier) Apply(entry models.LimitEntry) (*models.ApplyReport, error) {
	a.m.hwMu.Lock()
	defer a.m.hwMu.Unlock()
	report, err := a.applier.Apply(entry)
	a.m.metrics.ObserveReport(report)
	return report, err
}

// Index builds a fresh hierarchy index of the hardware session.
func (m *Manager) Index() *models.HierarchyIndex {
	m.hwMu.Lock()
	defer m.hwMu.Unlock()
	return engine.New(m.hw, engine.WithLogger(m.logger)).Index()
}

// GetImport returns a copy of the import session.
func (m *Manager) GetImport(id string) (*models.ImportSession, bool) {
	s := m.snapshot(id)
	return s, s != nil
}

// TouchImport extends the keep-alive of an import.
func (m *Manager) TouchImport(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.imports[id]
	if ok {
		state.LastAccessed = time.Now()
	}
	return ok
}

// Controller returns the reconcile controller of a finished import.
func (m *Manager) Controller(id string) (*reconcile.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.imports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if state.Controller == nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotReconcilable, id, state.Session.Error)
	}
	return state.Controller, nil
}

// Summary builds the current summary of an import.
func (m *Manager) Summary(id string) (*report.Summary, error) {
	ctrl, err := m.Controller(id)
	if err != nil {
		return nil, err
	}
	sum := report.Build(ctrl.State())
	if sum.RepairHint != "" {
		sum.RepairHint = fmt.Sprintf("Pair the remaining items with `limitctl reconcile`, or POST events to /api/imports/%s/reconcile.", id)
	}
	return sum, nil
}

// RunLog returns the in-memory run log of an import.
func (m *Manager) RunLog(id string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.imports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return state.Log.Lines(), nil
}

// Count returns the number of imports held.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.imports)
}

// CleanupOldImports drops imports not accessed within maxAge.
func (m *Manager) CleanupOldImports(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, state := range m.imports {
		if now.Sub(state.LastAccessed) > maxAge {
			delete(m.imports, id)
			removed++
			m.logger.Debug("Dropped aged import", zap.String("import", shortID(id)))
		}
	}
	return removed
}

// RunJanitor drops imports idle longer than the configured max age every
// interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupOldImports(m.maxAge); n > 0 {
				m.logger.Info("Cleaned up aged imports", zap.Int("count", n))
			}
		}
	}
}

// cleanupOldImportsIfNeeded evicts the least recently used imports once
// the limit is reached, sparing those inside the keep-alive window.
func (m *Manager) cleanupOldImportsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.imports) < m.maxImports {
		return
	}

	type aged struct {
		id   string
		seen time.Time
	}
	var candidates []aged
	now := time.Now()
	for id, state := range m.imports {
		if now.Sub(state.LastAccessed) > ImportKeepAliveWindow {
			candidates = append(candidates, aged{id, state.LastAccessed})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].seen.Before(candidates[j].seen) })

	for _, c := range candidates {
		if len(m.imports) < m.maxImports {
			break
		}
		delete(m.imports, c.id)
		m.logger.Info("Evicted import to stay under limit", zap.String("import", shortID(c.id)))
	}
}

func (m *Manager) update(id string, fn func(*ImportState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.imports[id]; ok {
		fn(state)
	}
}

func (m *Manager) finish(id string, fn func(*ImportState)) {
	m.update(id, func(s *ImportState) {
		fn(s)
		s.LastAccessed = time.Now()
	})
}

func (m *Manager) snapshot(id string) *models.ImportSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.imports[id]
	if !ok {
		return nil
	}
	cp := *state.Session
	return &cp
}

// shortID truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
