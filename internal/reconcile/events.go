package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/limit-importer/backend/internal/models"
)

// Event is something the user or the applier did.
type Event interface {
	event()
}

// SelectLimit picks an unpaired entry by ID.
type SelectLimit struct{ ID string }

// SelectResult picks an unpaired result by its "path|measurement|result" key.
type SelectResult struct{ Key string }

// Confirm asks for the selected pair to be applied.
type Confirm struct{}

// ApplySucceeded reports that the confirmed pair was written.
type ApplySucceeded struct{ Report *models.ApplyReport }

// ApplyFailed reports that the confirmed pair could not be written.
type ApplyFailed struct{ Err error }

// Dismiss acknowledges a success or failure message.
type Dismiss struct{}

// Cancel drops the current selection.
type Cancel struct{}

func (SelectLimit) event()    {}
func (SelectResult) event()   {}
func (Confirm) event()        {}
func (ApplySucceeded) event() {}
func (ApplyFailed) event()    {}
func (Dismiss) event()        {}
func (Cancel) event()         {}

// WireEvent is the JSON form of a user event sent over HTTP or WebSocket.
// Apply outcomes are produced by the Controller and cannot be sent.
type WireEvent struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
}

// ErrUnknownEvent is returned for wire events with an unrecognised type.
var ErrUnknownEvent = errors.New("unknown reconcile event")

// Event converts the wire form into a typed event.
func (w WireEvent) Event() (Event, error) {
	switch strings.ToLower(strings.TrimSpace(w.Type)) {
	case "selectlimit", "select_limit":
		return SelectLimit{ID: w.ID}, nil
	case "selectresult", "select_result":
		return SelectResult{Key: w.Key}, nil
	case "confirm":
		return Confirm{}, nil
	case "dismiss":
		return Dismiss{}, nil
	case "cancel":
		return Cancel{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, w.Type)
}

// DecodeEvent parses a JSON wire event.
func DecodeEvent(data []byte) (Event, error) {
	var w WireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding reconcile event: %w", err)
	}
	return w.Event()
}
