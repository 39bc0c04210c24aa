// Package engine pairs limit entries with results in a live hardware
// session and writes the matched limits.
package engine

import (
	"time"

	"github.com/limit-importer/backend/internal/hardware"
	"github.com/limit-importer/backend/internal/index"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/runlog"
	"go.uber.org/zap"
)

// Engine runs one matching pass: index the session, resolve every entry,
// apply each match and collect what is left over on either side.
type Engine struct {
	session hardware.Session
	indexer *index.Indexer
	applier *Applier
	sink    runlog.Sink
	logger  *zap.Logger
}

// New creates an Engine bound to session.
func New(session hardware.Session, opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		session: session,
		indexer: index.New(o.sink, o.logger),
		applier: &Applier{session: session, policy: o.policy, sink: o.sink, logger: o.logger},
		sink:    o.sink,
		logger:  o.logger,
	}
}

// Applier returns the applier the engine writes through.
func (e *Engine) Applier() *Applier {
	return e.applier
}

// Index builds a fresh hierarchy index of the session.
func (e *Engine) Index() *models.HierarchyIndex {
	return e.indexer.Build(e.session)
}

// Run indexes the session and matches entries against it.
func (e *Engine) Run(entries []models.LimitEntry) (*models.HierarchyIndex, *models.Outcome) {
	idx := e.Index()
	return idx, e.Match(entries, idx)
}

// Match pairs entries with results in idx, applying each pair as it is
// found. Entries are handled in order; a failure on one entry never stops
// the rest. Every entry ends up either Paired or an UnpairedLimit, and every
// indexed result that nothing was applied to is an UnpairedResult.
func (e *Engine) Match(entries []models.LimitEntry, idx *models.HierarchyIndex) *models.Outcome {
	start := time.Now()
	out := models.NewOutcome()
	paired := make(map[models.MatchKey]bool)

	runlog.Appendf(e.sink, "Matching %d limit entries against %d results", len(entries), idx.Len())

	for _, entry := range entries {
		key := entry.Key()
		live, err := resolve(idx, key)
		if err != nil {
			runlog.Appendf(e.sink, "No match: %v", err)
			out.Add(models.UnpairedLimit(entry, err.Error(), nil))
			continue
		}

		report, err := e.applier.Apply(entry)
		if err != nil {
			e.logger.Info("Limit not applied", zap.String("key", key.String()), zap.Error(err))
			out.Add(models.UnpairedLimit(entry, err.Error(), report))
			continue
		}
		paired[live.Normalized()] = true
		out.Add(models.Paired(live, entry, report))
	}

	for _, k := range idx.Keys() {
		if !paired[k.Normalized()] {
			out.Add(models.UnpairedResult(k))
		}
	}

	e.logger.Info("Matching complete",
		zap.Int("paired", len(out.Paired)),
		zap.Int("unpairedLimits", len(out.UnpairedLimits)),
		zap.Int("unpairedResults", len(out.UnpairedResults)),
		zap.Duration("elapsed", time.Since(start)))
	runlog.Appendf(e.sink, "Paired %d, %d limits unpaired, %d results unpaired",
		len(out.Paired), len(out.UnpairedLimits), len(out.UnpairedResults))
	return out
}

func resolve(idx *models.HierarchyIndex, key models.MatchKey) (models.MatchKey, error) {
	if !idx.HasPath(key.SignalPath) {
		return models.MatchKey{}, &LookupError{Key: key, Level: "signal path"}
	}
	if !idx.HasMeasurement(key.SignalPath, key.Measurement) {
		return models.MatchKey{}, &LookupError{Key: key, Level: "measurement"}
	}
	live, ok := idx.Resolve(key)
	if !ok {
		return models.MatchKey{}, &LookupError{Key: key, Level: "result"}
	}
	return live, nil
}
