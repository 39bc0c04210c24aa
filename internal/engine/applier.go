package engine

import (
	"fmt"
	"math"

	"github.com/limit-importer/backend/internal/hardware"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/runlog"
	"go.uber.org/zap"
)

// Applier writes one limit entry into the live session.
//
// Failures are isolated per channel: a rejected or invalid channel is
// recorded in the report and the remaining channels are still written.
type Applier struct {
	session hardware.Session
	policy  LinkPolicy
	sink    runlog.Sink
	logger  *zap.Logger
}

// NewApplier creates an Applier for the session.
func NewApplier(session hardware.Session, opts ...Option) *Applier {
	o := buildOptions(opts)
	return &Applier{session: session, policy: o.policy, sink: o.sink, logger: o.logger}
}

// Apply locates the entry's result and writes its bounds. The report is
// returned whenever the result was located, including on failure. The error
// is nil only when at least one channel or scalar was applied.
func (a *Applier) Apply(entry models.LimitEntry) (*models.ApplyReport, error) {
	key := entry.Key()
	if !entry.UpperEnabled() && !entry.LowerEnabled() {
		runlog.Appendf(a.sink, "%s: no bounds enabled, nothing to apply", key)
		return nil, fmt.Errorf("%s: %w", key, ErrNoBounds)
	}

	var (
		live  models.MatchKey
		graph hardware.Graph
	)
	err := guard(func() error {
		var err error
		live, graph, err = a.locate(key)
		return err
	})
	if err != nil {
		runlog.Appendf(a.sink, "Lookup failed: %v", err)
		if _, ok := err.(*LookupError); !ok {
			err = &LookupError{Key: key, Level: "result", Err: err}
		}
		return nil, err
	}

	var (
		channels int
		vt       models.ResultValueType
	)
	err = guard(func() error {
		vt = graph.ValueType()
		var err error
		channels, err = graph.ChannelCount()
		return err
	})
	if err != nil {
		runlog.Appendf(a.sink, "%s: reading channel count failed: %v", live, err)
		return nil, fmt.Errorf("%s: reading channel count: %w", live, err)
	}
	if channels < 1 {
		return nil, &ShapeError{Key: live, Channel: -1, Reason: fmt.Sprintf("result reports %d channels", channels)}
	}
	if vt != entry.ResultValueType {
		runlog.Appendf(a.sink, "%s: entry is %s but result is %s", live, entry.ResultValueType, vt)
		return nil, &ShapeError{Key: live, Channel: -1, Reason: fmt.Sprintf("entry is %s but result is %s", entry.ResultValueType, vt)}
	}

	report := &models.ApplyReport{Key: live, ValueType: vt, Channels: channels}
	switch vt {
	case models.ValueTypeMeter:
		a.applyMeter(report, graph, entry)
	default:
		a.applyCurves(report, graph, entry, channels)
	}

	runlog.Appendf(a.sink, "%s: %s", live, report)
	if !report.Succeeded() {
		return report, fmt.Errorf("%s: %w", live, ErrNothingApplied)
	}
	return report, nil
}

// locate walks the live session to the graph named by key.
func (a *Applier) locate(key models.MatchKey) (models.MatchKey, hardware.Graph, error) {
	want := key.Normalized()

	paths, err := a.session.SignalPaths()
	if err != nil {
		return models.MatchKey{}, nil, &LookupError{Key: key, Level: "signal path", Err: err}
	}

	// Repeated path or measurement names merge in the index, so every
	// node with a matching name is searched before giving up.
	miss := &LookupError{Key: key, Level: "signal path"}
	for _, p := range paths {
		if models.NormalizeName(p.Name()) != want.SignalPath {
			continue
		}
		if miss.Level == "signal path" {
			miss = &LookupError{Key: key, Level: "measurement"}
		}
		count, err := p.MeasurementCount()
		if err != nil {
			if miss.Err == nil {
				miss.Err = err
			}
			continue
		}
		for i := 0; i < count; i++ {
			m, err := p.Measurement(i)
			if err != nil {
				continue
			}
			if models.NormalizeName(m.Name()) != want.Measurement {
				continue
			}
			if miss.Level != "result" {
				miss = &LookupError{Key: key, Level: "result"}
			}
			graphs, err := m.Graphs()
			if err != nil {
				if miss.Err == nil {
					miss.Err = err
				}
				continue
			}
			for _, g := range graphs {
				if models.NormalizeName(g.Name()) == want.Result {
					return models.MatchKey{SignalPath: p.Name(), Measurement: m.Name(), Result: g.Name()}, g, nil
				}
			}
		}
	}
	return models.MatchKey{}, nil, miss
}

func (a *Applier) applyCurves(report *models.ApplyReport, g hardware.Graph, entry models.LimitEntry, channels int) {
	for _, side := range models.Sides {
		if !entry.Enabled(side) {
			continue
		}
		x, y := entry.Curve(side)

		limit, err := a.limit(g, side)
		if err != nil {
			a.markSide(report, side, channels, models.UnitFailed, fmt.Sprintf("opening %s limit: %v", side, err))
			continue
		}
		if len(x) != len(y) {
			a.shapeSide(report, side, channels, fmt.Sprintf("%d x values but %d y values", len(x), len(y)))
			continue
		}
		if len(x)%channels != 0 {
			a.shapeSide(report, side, channels, fmt.Sprintf("%d points do not split evenly across %d channels", len(x), channels))
			continue
		}
		per := len(x) / channels

		prelinked := false
		_ = guard(func() error {
			prelinked = a.policy.Prelinked(limit)
			return nil
		})

		ch0Applied := false
		for ch := 0; ch < channels; ch++ {
			if prelinked && ch > 0 {
				a.linkRemaining(report, side, ch, channels, ch0Applied)
				break
			}

			xs, ys := x[ch*per:(ch+1)*per], y[ch*per:(ch+1)*per]
			if !nonDecreasing(xs) {
				a.skipChannel(report, side, ch, &ShapeError{Key: report.Key, Side: side, Channel: ch, Reason: "x values are not non-decreasing"})
				continue
			}

			err := guard(func() error { return limit.SetCurve(ch, xs, ys) })
			switch {
			case err == nil:
				report.Record(side, ch, models.UnitApplied, "")
				ch0Applied = ch0Applied || ch == 0
			case a.policy.IsLinkSignal(err):
				if ch == 0 {
					report.Record(side, 0, models.UnitApplied, "")
					ch0Applied = true
					ch = 1
				}
				a.linkRemaining(report, side, ch, channels, ch0Applied)
				ch = channels
			default:
				a.failChannel(report, side, ch, err)
			}
		}
	}
}

func (a *Applier) applyMeter(report *models.ApplyReport, g hardware.Graph, entry models.LimitEntry) {
	for _, side := range models.Sides {
		if !entry.Enabled(side) {
			continue
		}
		limit, err := a.limit(g, side)
		if err != nil {
			a.failChannel(report, side, 0, fmt.Errorf("opening %s limit: %w", side, err))
			continue
		}
		value := *entry.Meter(side)
		err = guard(func() error { return limit.SetScalar(0, value) })
		if err != nil && !a.policy.IsLinkSignal(err) {
			a.failChannel(report, side, 0, err)
			continue
		}
		report.Record(side, 0, models.UnitApplied, "")
	}
}

func (a *Applier) limit(g hardware.Graph, side models.Side) (hardware.Limit, error) {
	var limit hardware.Limit
	err := guard(func() error {
		var err error
		limit, err = g.Limit(side)
		return err
	})
	return limit, err
}

func (a *Applier) linkRemaining(report *models.ApplyReport, side models.Side, from, channels int, ch0Applied bool) {
	for ch := from; ch < channels; ch++ {
		if ch0Applied {
			report.Record(side, ch, models.UnitLinked, "tracks channel 0")
		} else {
			report.Record(side, ch, models.UnitSkipped, "tracks channel 0, which was not written")
		}
	}
	if from < channels {
		runlog.Appendf(a.sink, "%s %s: channels %d-%d track channel 0", report.Key, side, from, channels-1)
	}
}

func (a *Applier) shapeSide(report *models.ApplyReport, side models.Side, channels int, reason string) {
	err := &ShapeError{Key: report.Key, Side: side, Channel: -1, Reason: reason}
	a.logger.Warn("Limit shape rejected", zap.String("key", report.Key.String()), zap.String("side", string(side)), zap.String("reason", reason))
	runlog.Appendf(a.sink, "Shape error: %v", err)
	a.markSide(report, side, channels, models.UnitSkipped, reason)
}

func (a *Applier) markSide(report *models.ApplyReport, side models.Side, channels int, status models.UnitStatus, reason string) {
	for ch := 0; ch < channels; ch++ {
		report.Record(side, ch, status, reason)
	}
	if status == models.UnitFailed {
		runlog.Appendf(a.sink, "%s %s: %s", report.Key, side, reason)
	}
}

func (a *Applier) skipChannel(report *models.ApplyReport, side models.Side, ch int, err *ShapeError) {
	a.logger.Warn("Skipping limit channel", zap.String("key", report.Key.String()), zap.String("side", string(side)), zap.Int("channel", ch), zap.String("reason", err.Reason))
	runlog.Appendf(a.sink, "Shape error: %v", err)
	report.Record(side, ch, models.UnitSkipped, err.Reason)
}

func (a *Applier) failChannel(report *models.ApplyReport, side models.Side, ch int, err error) {
	a.logger.Warn("Limit write failed", zap.String("key", report.Key.String()), zap.String("side", string(side)), zap.Int("channel", ch), zap.Error(err))
	runlog.Appendf(a.sink, "%s %s ch%d write failed: %v", report.Key, side, ch, err)
	report.Record(side, ch, models.UnitFailed, err.Error())
}

func nonDecreasing(xs []float64) bool {
	for i := range xs {
		if math.IsNaN(xs[i]) {
			return false
		}
		if i > 0 && xs[i] < xs[i-1] {
			return false
		}
	}
	return true
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
