// Package reconcile lets a user pair leftover limit entries with leftover
// results after an import run, one pair at a time.
//
// The flow is a reducer: Reduce(State, Event) returns the next State and
// never touches hardware. Controller owns the state and performs the apply
// side effect when a pair is confirmed.
package reconcile

import (
	"strconv"

	"github.com/limit-importer/backend/internal/models"
)

// Phase is where the reconciliation flow currently is.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSelecting Phase = "selecting"
	PhaseApplying  Phase = "applying"
	PhasePaired    Phase = "paired"
	PhaseFailed    Phase = "failed"
)

// PairedItem is a row in the paired view.
type PairedItem struct {
	Display     string              `json:"display" msgpack:"display"`
	Key         models.MatchKey     `json:"key" msgpack:"key"`
	OriginalKey models.MatchKey     `json:"originalKey" msgpack:"originalKey"`
	EntryID     string              `json:"entryId,omitempty" msgpack:"entryId,omitempty"`
	Report      *models.ApplyReport `json:"report,omitempty" msgpack:"report,omitempty"`
	Reconciled  bool                `json:"reconciled" msgpack:"reconciled"`
}

// LimitItem is an entry waiting to be paired.
type LimitItem struct {
	Entry  models.LimitEntry   `json:"entry" msgpack:"entry"`
	Reason string              `json:"reason" msgpack:"reason"`
	Report *models.ApplyReport `json:"report,omitempty" msgpack:"report,omitempty"`
}

// State is an immutable snapshot of the reconciliation view.
type State struct {
	Phase           Phase             `json:"phase" msgpack:"phase"`
	Paired          []PairedItem      `json:"paired" msgpack:"paired"`
	UnpairedLimits  []LimitItem       `json:"unpairedLimits" msgpack:"unpairedLimits"`
	UnpairedResults []models.MatchKey `json:"unpairedResults" msgpack:"unpairedResults"`
	SelectedLimit   string            `json:"selectedLimit,omitempty" msgpack:"selectedLimit,omitempty"`
	SelectedResult  string            `json:"selectedResult,omitempty" msgpack:"selectedResult,omitempty"`
	LastError       string            `json:"lastError,omitempty" msgpack:"lastError,omitempty"`
	Message         string            `json:"message,omitempty" msgpack:"message,omitempty"`
}

// NewState builds the initial view from a run outcome. Unpaired entries
// without an ID get their position in the unpaired list as ID.
func NewState(out *models.Outcome) State {
	s := State{
		Phase:           PhaseIdle,
		Paired:          make([]PairedItem, 0, len(out.Paired)),
		UnpairedLimits:  make([]LimitItem, 0, len(out.UnpairedLimits)),
		UnpairedResults: make([]models.MatchKey, 0, len(out.UnpairedResults)),
	}
	for _, p := range out.Paired {
		item := PairedItem{Display: p.Key.String(), Key: p.Key, Report: p.Report}
		if p.Entry != nil {
			item.OriginalKey = p.Entry.Key()
			item.EntryID = p.Entry.ID
		}
		s.Paired = append(s.Paired, item)
	}
	for i, u := range out.UnpairedLimits {
		if u.Entry == nil {
			continue
		}
		entry := *u.Entry
		if entry.ID == "" {
			entry.ID = "u" + strconv.Itoa(i)
		}
		s.UnpairedLimits = append(s.UnpairedLimits, LimitItem{Entry: entry, Reason: u.Reason, Report: u.Report})
	}
	for _, r := range out.UnpairedResults {
		s.UnpairedResults = append(s.UnpairedResults, r.Key)
	}
	return s
}

// Complete reports whether nothing is left to pair.
func (s State) Complete() bool {
	return len(s.UnpairedLimits) == 0 && len(s.UnpairedResults) == 0
}

// Outcome converts the view back into a pairing outcome, with reconciled
// pairs counted as paired.
func (s State) Outcome() *models.Outcome {
	out := models.NewOutcome()
	for _, p := range s.Paired {
		entry := models.LimitEntry{
			ID:              p.EntryID,
			SignalPathName:  p.OriginalKey.SignalPath,
			MeasurementName: p.OriginalKey.Measurement,
			ResultName:      p.OriginalKey.Result,
		}
		out.Add(models.Paired(p.Key, entry, p.Report))
	}
	for _, l := range s.UnpairedLimits {
		out.Add(models.UnpairedLimit(l.Entry, l.Reason, l.Report))
	}
	for _, r := range s.UnpairedResults {
		out.Add(models.UnpairedResult(r))
	}
	return out
}

// Limit returns the unpaired entry with the given ID.
func (s State) Limit(id string) (LimitItem, bool) {
	i := s.limitIndex(id)
	if i < 0 {
		return LimitItem{}, false
	}
	return s.UnpairedLimits[i], true
}

func (s State) limitIndex(id string) int {
	for i, l := range s.UnpairedLimits {
		if l.Entry.ID == id {
			return i
		}
	}
	return -1
}

func (s State) resultIndex(k models.MatchKey) int {
	for i, r := range s.UnpairedResults {
		if r.Equal(k) {
			return i
		}
	}
	return -1
}
