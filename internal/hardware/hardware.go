// Package hardware defines the adapter contract for a live measurement session.
//
// Implementations wrap a vendor automation API. The session is not reentrant:
// callers must serialise every call (see session.Manager).
package hardware

import (
	"errors"

	"github.com/limit-importer/backend/internal/models"
)

// ErrChannelsLinked is returned by a limit write when the hardware mirrors
// channel 0 to every other channel. It signals success, not failure.
var ErrChannelsLinked = errors.New("hardware: channels track channel 0")

// Session is the root of the live result hierarchy.
type Session interface {
	SignalPaths() ([]SignalPath, error)
}

// SignalPath is a named top-level grouping within a test sequence.
type SignalPath interface {
	Name() string
	MeasurementCount() (int, error)
	Measurement(i int) (Measurement, error)
}

// Measurement is a test step producing one or more results.
type Measurement interface {
	Name() string
	// Graphs makes the measurement the active context and lists its results.
	Graphs() ([]Graph, error)
}

// Graph is a named result with per-channel data.
type Graph interface {
	Name() string
	ValueType() models.ResultValueType
	ChannelCount() (int, error)
	Limit(side models.Side) (Limit, error)
}

// Limit is the settable upper or lower bound of a graph.
type Limit interface {
	SetCurve(channel int, x, y []float64) error
	SetScalar(channel int, value float64) error
}

// LinkReporter is implemented by limits that can say up front whether the
// hardware is tracking every channel to channel 0.
type LinkReporter interface {
	ChannelsLinked() bool
}
