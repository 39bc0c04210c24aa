package models

import (
	"fmt"
	"strings"
)

// OutcomeKind tags a PairingOutcome.
type OutcomeKind string

const (
	OutcomePaired         OutcomeKind = "paired"
	OutcomeUnpairedLimit  OutcomeKind = "unpaired_limit"
	OutcomeUnpairedResult OutcomeKind = "unpaired_result"
)

// PairingOutcome is the result of matching one limit entry or one indexed result.
//
//	Paired:         Key (live spelling), Entry, Report
//	UnpairedLimit:  Entry, Reason, and Report when the apply was attempted
//	UnpairedResult: Key
type PairingOutcome struct {
	Kind   OutcomeKind  `json:"kind"`
	Key    MatchKey     `json:"key"`
	Entry  *LimitEntry  `json:"entry,omitempty"`
	Report *ApplyReport `json:"report,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// Paired builds a paired outcome.
func Paired(key MatchKey, entry LimitEntry, report *ApplyReport) PairingOutcome {
	return PairingOutcome{Kind: OutcomePaired, Key: key, Entry: &entry, Report: report}
}

// UnpairedLimit builds an outcome for an entry that could not be applied.
func UnpairedLimit(entry LimitEntry, reason string, report *ApplyReport) PairingOutcome {
	return PairingOutcome{Kind: OutcomeUnpairedLimit, Key: entry.Key(), Entry: &entry, Reason: reason, Report: report}
}

// UnpairedResult builds an outcome for an indexed result no entry claimed.
func UnpairedResult(key MatchKey) PairingOutcome {
	return PairingOutcome{Kind: OutcomeUnpairedResult, Key: key}
}

// Outcome groups the pairing outcomes of one import run.
type Outcome struct {
	Paired          []PairingOutcome `json:"paired"`
	UnpairedLimits  []PairingOutcome `json:"unpairedLimits"`
	UnpairedResults []PairingOutcome `json:"unpairedResults"`
}

// NewOutcome creates an empty outcome.
func NewOutcome() *Outcome {
	return &Outcome{
		Paired:          make([]PairingOutcome, 0),
		UnpairedLimits:  make([]PairingOutcome, 0),
		UnpairedResults: make([]PairingOutcome, 0),
	}
}

// Add files an outcome under its kind.
func (o *Outcome) Add(p PairingOutcome) {
	switch p.Kind {
	case OutcomePaired:
		o.Paired = append(o.Paired, p)
	case OutcomeUnpairedLimit:
		o.UnpairedLimits = append(o.UnpairedLimits, p)
	case OutcomeUnpairedResult:
		o.UnpairedResults = append(o.UnpairedResults, p)
	}
}

// Complete reports whether nothing was left unpaired.
func (o *Outcome) Complete() bool {
	return len(o.UnpairedLimits) == 0 && len(o.UnpairedResults) == 0
}

// UnitStatus is the fate of one channel or scalar write.
type UnitStatus string

const (
	UnitApplied UnitStatus = "applied"
	UnitLinked  UnitStatus = "linked"  // satisfied by hardware channel tracking
	UnitSkipped UnitStatus = "skipped" // rejected by validation before writing
	UnitFailed  UnitStatus = "failed"  // the session rejected the write
)

// UnitResult records what happened to one channel of one side.
type UnitResult struct {
	Side    Side       `json:"side"`
	Channel int        `json:"channel"`
	Status  UnitStatus `json:"status"`
	Reason  string     `json:"reason,omitempty"`
}

// ApplyReport is the per-unit account of applying one entry.
type ApplyReport struct {
	Key       MatchKey        `json:"key"`
	ValueType ResultValueType `json:"valueType"`
	Channels  int             `json:"channels"`
	Units     []UnitResult    `json:"units"`
}

// Record appends a unit result.
func (r *ApplyReport) Record(side Side, channel int, status UnitStatus, reason string) {
	r.Units = append(r.Units, UnitResult{Side: side, Channel: channel, Status: status, Reason: reason})
}

// Count returns how many units ended with the given status.
func (r *ApplyReport) Count(status UnitStatus) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, u := range r.Units {
		if u.Status == status {
			n++
		}
	}
	return n
}

// Succeeded reports whether at least one unit was written or satisfied.
func (r *ApplyReport) Succeeded() bool {
	return r.Count(UnitApplied)+r.Count(UnitLinked) > 0
}

// Partial reports a success that left some units skipped or failed.
func (r *ApplyReport) Partial() bool {
	return r.Succeeded() && r.Count(UnitSkipped)+r.Count(UnitFailed) > 0
}

// Problems describes the skipped and failed units, one per line.
func (r *ApplyReport) Problems() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, u := range r.Units {
		if u.Status == UnitSkipped || u.Status == UnitFailed {
			out = append(out, fmt.Sprintf("%s ch%d %s: %s", u.Side, u.Channel, u.Status, u.Reason))
		}
	}
	return out
}

// String summarises the report on a single line.
func (r *ApplyReport) String() string {
	if r == nil {
		return "not applied"
	}
	parts := []string{fmt.Sprintf("%d applied", r.Count(UnitApplied))}
	if n := r.Count(UnitLinked); n > 0 {
		parts = append(parts, fmt.Sprintf("%d linked", n))
	}
	if n := r.Count(UnitSkipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if n := r.Count(UnitFailed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	return strings.Join(parts, ", ")
}
