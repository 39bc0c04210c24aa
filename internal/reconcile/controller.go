package reconcile

import (
	"errors"
	"sync"

	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/runlog"
	"github.com/rs/xid"
	"go.uber.org/zap"
)

// Applier writes a single limit entry. *engine.Applier satisfies it.
type Applier interface {
	Apply(entry models.LimitEntry) (*models.ApplyReport, error)
}

// Controller owns a reconciliation State. Dispatch is serialised, so the UI
// surfaces (terminal, HTTP, WebSocket) can share one controller.
type Controller struct {
	mu      sync.Mutex
	state   State
	applier Applier
	sink    runlog.Sink
	logger  *zap.Logger

	subMu sync.RWMutex
	subs  map[string]func(State)
}

// NewController creates a controller. sink and logger may be nil.
func NewController(state State, applier Applier, sink runlog.Sink, logger *zap.Logger) *Controller {
	if sink == nil {
		sink = runlog.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		state:   state,
		applier: applier,
		sink:    sink,
		logger:  logger,
		subs:    make(map[string]func(State)),
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies e and, for Confirm, performs the apply and feeds its
// outcome back through the reducer. It returns the resulting state.
func (c *Controller) Dispatch(e Event) State {
	c.mu.Lock()
	c.state = Reduce(c.state, e)
	if _, ok := e.(Confirm); ok && c.state.Phase == PhaseApplying {
		c.state = Reduce(c.state, c.apply(c.state))
	}
	s := c.state
	c.mu.Unlock()

	c.notify(s)
	return s
}

func (c *Controller) apply(s State) Event {
	item, ok := s.Limit(s.SelectedLimit)
	if !ok {
		return ApplyFailed{Err: errSelectionGone}
	}
	target, err := models.ParseMatchKey(s.SelectedResult)
	if err != nil {
		return ApplyFailed{Err: err}
	}

	bound := item.Entry.WithKey(target)
	runlog.Appendf(c.sink, "Reconciling %s -> %s", item.Entry.Key(), target)

	report, err := c.applier.Apply(bound)
	if err != nil {
		c.logger.Info("Reconcile apply failed",
			zap.String("entry", item.Entry.Key().String()),
			zap.String("target", target.String()),
			zap.Error(err))
		runlog.Appendf(c.sink, "Reconcile failed: %v", err)
		return ApplyFailed{Err: err}
	}
	runlog.Appendf(c.sink, "Reconciled %s -> %s: %s", item.Entry.Key(), report.Key, report)
	return ApplySucceeded{Report: report}
}

// Subscribe registers fn to receive every state produced by Dispatch.
// The returned function unregisters it.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	id := xid.New().String()
	c.subMu.Lock()
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) notify(s State) {
	c.subMu.RLock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()
	for _, fn := range fns {
		fn(s)
	}
}

var errSelectionGone = errors.New("selected limit is no longer unpaired")
