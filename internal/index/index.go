// Package index builds a HierarchyIndex from a live hardware session.
//
// Reads fail soft: a signal path or measurement that cannot be read is
// logged and left out of the index, and the walk continues.
package index

import (
	"fmt"

	"github.com/limit-importer/backend/internal/hardware"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/runlog"
	"go.uber.org/zap"
)

// Indexer walks a session and records signal paths, measurements and results.
type Indexer struct {
	sink   runlog.Sink
	logger *zap.Logger
}

// New creates an Indexer. A nil sink or logger discards output.
func New(sink runlog.Sink, logger *zap.Logger) *Indexer {
	if sink == nil {
		sink = runlog.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{sink: sink, logger: logger}
}

// Build indexes the session. It never fails; unreadable branches are
// listed in HierarchyIndex.Skipped.
func (ix *Indexer) Build(session hardware.Session) *models.HierarchyIndex {
	idx := models.NewHierarchyIndex()

	var paths []hardware.SignalPath
	err := guard(func() error {
		var err error
		paths, err = session.SignalPaths()
		return err
	})
	if err != nil {
		ix.skip(idx, "session", err)
		return idx
	}

	for _, p := range paths {
		ix.indexPath(idx, p)
	}

	ix.logger.Debug("Hierarchy indexed",
		zap.Int("paths", len(idx.Paths)),
		zap.Int("results", idx.Len()),
		zap.Int("skipped", len(idx.Skipped)))
	runlog.Appendf(ix.sink, "Indexed %d results under %d signal paths (%d branches skipped)",
		idx.Len(), len(idx.Paths), len(idx.Skipped))
	return idx
}

func (ix *Indexer) indexPath(idx *models.HierarchyIndex, p hardware.SignalPath) {
	var (
		name  string
		count int
	)
	err := guard(func() error {
		name = p.Name()
		var err error
		count, err = p.MeasurementCount()
		return err
	})
	if err != nil {
		ix.skip(idx, "signal path "+quoted(name), err)
		return
	}
	idx.AddPath(name)

	for i := 0; i < count; i++ {
		ix.indexMeasurement(idx, name, p, i)
	}
}

func (ix *Indexer) indexMeasurement(idx *models.HierarchyIndex, path string, p hardware.SignalPath, i int) {
	var (
		name    string
		results []models.ResultInfo
	)
	err := guard(func() error {
		m, err := p.Measurement(i)
		if err != nil {
			return err
		}
		name = m.Name()
		graphs, err := m.Graphs()
		if err != nil {
			return err
		}
		for _, g := range graphs {
			info := models.ResultInfo{Name: g.Name(), ValueType: g.ValueType()}
			if n, err := g.ChannelCount(); err == nil {
				info.Channels = n
			}
			results = append(results, info)
		}
		return nil
	})
	if err != nil {
		branch := fmt.Sprintf("measurement %d under %s", i, quoted(path))
		if name != "" {
			branch = fmt.Sprintf("measurement %s under %s", quoted(name), quoted(path))
		}
		ix.skip(idx, branch, err)
		return
	}

	idx.AddMeasurement(path, name)
	for _, r := range results {
		idx.AddResult(path, name, r)
	}
}

func (ix *Indexer) skip(idx *models.HierarchyIndex, branch string, err error) {
	idx.MarkSkipped(branch)
	ix.logger.Warn("Skipping unreadable branch", zap.String("branch", branch), zap.Error(err))
	runlog.Appendf(ix.sink, "Skipped %s: %v", branch, err)
}

// guard runs fn and turns a panic from the adapter into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session call panicked: %v", r)
		}
	}()
	return fn()
}

func quoted(s string) string {
	return fmt.Sprintf("%q", s)
}
