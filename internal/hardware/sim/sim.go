// Package sim provides an in-memory hardware.Session for tests, the CLI and
// bench setups without a live analyzer attached.
package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/limit-importer/backend/internal/hardware"
	"github.com/limit-importer/backend/internal/models"
)

// LinkMode controls how a simulated graph behaves when channels are tracked.
type LinkMode string

const (
	LinkNone   LinkMode = ""
	LinkReport LinkMode = "report" // ChannelsLinked() reports true
	LinkError  LinkMode = "error"  // writes past channel 0 return ErrChannelsLinked
)

// Curve is a stored curve limit.
type Curve struct {
	X []float64
	Y []float64
}

// Rig is a simulated analyzer session.
type Rig struct {
	name  string
	paths []*Path
	fail  error
}

// NewRig creates an empty rig.
func NewRig(name string) *Rig {
	return &Rig{name: name}
}

// Name returns the rig name.
func (r *Rig) Name() string { return r.name }

// FailListing makes SignalPaths return err.
func (r *Rig) FailListing(err error) *Rig {
	r.fail = err
	return r
}

// AddPath appends a signal path.
func (r *Rig) AddPath(name string) *Path {
	p := &Path{name: name}
	r.paths = append(r.paths, p)
	return p
}

// SignalPaths implements hardware.Session.
func (r *Rig) SignalPaths() ([]hardware.SignalPath, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	out := make([]hardware.SignalPath, len(r.paths))
	for i, p := range r.paths {
		out[i] = p
	}
	return out, nil
}

// Graph finds a graph by exact key spelling.
func (r *Rig) Graph(key models.MatchKey) *Graph {
	for _, p := range r.paths {
		if p.name != key.SignalPath {
			continue
		}
		for _, m := range p.measurements {
			if m.name != key.Measurement {
				continue
			}
			for _, g := range m.graphs {
				if g.name == key.Result {
					return g
				}
			}
		}
	}
	return nil
}

// Path is a simulated signal path.
type Path struct {
	name         string
	measurements []*Measurement
	fail         error
}

// Fail makes every measurement read under this path return err.
func (p *Path) Fail(err error) *Path {
	p.fail = err
	return p
}

// AddMeasurement appends a measurement.
func (p *Path) AddMeasurement(name string) *Measurement {
	m := &Measurement{name: name}
	p.measurements = append(p.measurements, m)
	return m
}

// Name implements hardware.SignalPath.
func (p *Path) Name() string { return p.name }

// MeasurementCount implements hardware.SignalPath.
func (p *Path) MeasurementCount() (int, error) {
	if p.fail != nil {
		return 0, p.fail
	}
	return len(p.measurements), nil
}

// Measurement implements hardware.SignalPath.
func (p *Path) Measurement(i int) (hardware.Measurement, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	if i < 0 || i >= len(p.measurements) {
		return nil, fmt.Errorf("measurement index %d out of range [0,%d)", i, len(p.measurements))
	}
	return p.measurements[i], nil
}

// Measurement is a simulated measurement.
type Measurement struct {
	name     string
	graphs   []*Graph
	fail     error
	panicMsg string
}

// Fail makes Graphs return err.
func (m *Measurement) Fail(err error) *Measurement {
	m.fail = err
	return m
}

// Panic makes Graphs panic with msg, mimicking a crashing driver call.
func (m *Measurement) Panic(msg string) *Measurement {
	m.panicMsg = msg
	return m
}

// AddGraph appends a result graph.
func (m *Measurement) AddGraph(name string, vt models.ResultValueType, channels int) *Graph {
	g := &Graph{
		name:     name,
		vt:       vt,
		channels: channels,
		failing:  make(map[int]bool),
		curves:   make(map[models.Side]map[int]Curve),
		scalars:  make(map[models.Side]map[int]float64),
	}
	m.graphs = append(m.graphs, g)
	return g
}

// Name implements hardware.Measurement.
func (m *Measurement) Name() string { return m.name }

// Graphs implements hardware.Measurement.
func (m *Measurement) Graphs() ([]hardware.Graph, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.fail != nil {
		return nil, m.fail
	}
	out := make([]hardware.Graph, len(m.graphs))
	for i, g := range m.graphs {
		out[i] = g
	}
	return out, nil
}

// ErrWriteRejected is returned for channels configured to fail.
var ErrWriteRejected = errors.New("sim: limit write rejected")

// Graph is a simulated result graph that records written limits.
type Graph struct {
	name     string
	vt       models.ResultValueType
	channels int
	link     LinkMode
	failing  map[int]bool
	writes   int

	curves  map[models.Side]map[int]Curve
	scalars map[models.Side]map[int]float64
}

// Link sets the channel tracking mode.
func (g *Graph) Link(mode LinkMode) *Graph {
	g.link = mode
	return g
}

// FailChannels makes writes to the given channels return ErrWriteRejected.
func (g *Graph) FailChannels(channels ...int) *Graph {
	for _, ch := range channels {
		g.failing[ch] = true
	}
	return g
}

// Name implements hardware.Graph.
func (g *Graph) Name() string { return g.name }

// ValueType implements hardware.Graph.
func (g *Graph) ValueType() models.ResultValueType { return g.vt }

// ChannelCount implements hardware.Graph.
func (g *Graph) ChannelCount() (int, error) { return g.channels, nil }

// Limit implements hardware.Graph.
func (g *Graph) Limit(side models.Side) (hardware.Limit, error) {
	if side != models.SideUpper && side != models.SideLower {
		return nil, fmt.Errorf("unknown limit side %q", side)
	}
	return &limit{g: g, side: side}, nil
}

// Curve returns the stored curve for a side and channel.
func (g *Graph) Curve(side models.Side, channel int) (Curve, bool) {
	c, ok := g.curves[side][channel]
	return c, ok
}

// Scalar returns the stored scalar for a side and channel.
func (g *Graph) Scalar(side models.Side, channel int) (float64, bool) {
	v, ok := g.scalars[side][channel]
	return v, ok
}

// Writes counts accepted write calls.
func (g *Graph) Writes() int { return g.writes }

type limit struct {
	g    *Graph
	side models.Side
}

func (l *limit) ChannelsLinked() bool {
	return l.g.link == LinkReport
}

func (l *limit) check(channel int) error {
	g := l.g
	if channel < 0 || channel >= g.channels {
		return fmt.Errorf("channel %d out of range [0,%d)", channel, g.channels)
	}
	if g.failing[channel] {
		return fmt.Errorf("%s %s ch%d: %w", g.name, l.side, channel, ErrWriteRejected)
	}
	if g.link != LinkNone && channel > 0 {
		return hardware.ErrChannelsLinked
	}
	return nil
}

// SetCurve stores the curve; with linking enabled channel 0 is mirrored.
func (l *limit) SetCurve(channel int, x, y []float64) error {
	if err := l.check(channel); err != nil {
		return err
	}
	if len(x) != len(y) {
		return fmt.Errorf("curve length mismatch: %d x values, %d y values", len(x), len(y))
	}
	g := l.g
	if g.curves[l.side] == nil {
		g.curves[l.side] = make(map[int]Curve)
	}
	c := Curve{X: slices.Clone(x), Y: slices.Clone(y)}
	g.curves[l.side][channel] = c
	if g.link != LinkNone {
		for ch := 1; ch < g.channels; ch++ {
			g.curves[l.side][ch] = c
		}
	}
	g.writes++
	return nil
}

// SetScalar stores the scalar; with linking enabled channel 0 is mirrored.
func (l *limit) SetScalar(channel int, value float64) error {
	if err := l.check(channel); err != nil {
		return err
	}
	g := l.g
	if g.scalars[l.side] == nil {
		g.scalars[l.side] = make(map[int]float64)
	}
	g.scalars[l.side][channel] = value
	if g.link != LinkNone {
		for ch := 1; ch < g.channels; ch++ {
			g.scalars[l.side][ch] = value
		}
	}
	g.writes++
	return nil
}
