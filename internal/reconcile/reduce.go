package reconcile

import (
	"fmt"
	"slices"

	"github.com/limit-importer/backend/internal/models"
)

// Reduce returns the state that follows s after e. It does not modify s.
//
//	Idle -> Selecting -> Applying -> Paired | Failed -> Idle
//
// Events that make no sense in the current phase leave the lists untouched
// and explain themselves in LastError.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case SelectLimit:
		return selectLimit(s, ev)
	case SelectResult:
		return selectResult(s, ev)
	case Confirm:
		return confirm(s)
	case ApplySucceeded:
		return applySucceeded(s, ev)
	case ApplyFailed:
		return applyFailed(s, ev)
	case Dismiss:
		switch {
		case s.Phase == PhaseFailed && s.SelectedLimit != "" && s.SelectedResult != "":
			s.Phase = PhaseSelecting
		case s.Phase == PhasePaired || s.Phase == PhaseFailed:
			s.Phase = PhaseIdle
		default:
			return s
		}
		s.LastError = ""
		s.Message = ""
		return s
	case Cancel:
		if s.Phase == PhaseApplying {
			s.LastError = "cannot cancel while a limit is being applied"
			return s
		}
		s.Phase = PhaseIdle
		s.SelectedLimit = ""
		s.SelectedResult = ""
		s.LastError = ""
		s.Message = ""
		return s
	}
	s.LastError = fmt.Sprintf("unsupported event %T", e)
	return s
}

func selectLimit(s State, ev SelectLimit) State {
	if s.Phase == PhaseApplying {
		s.LastError = "wait for the current apply to finish"
		return s
	}
	if s.limitIndex(ev.ID) < 0 {
		s.LastError = fmt.Sprintf("no unpaired limit with id %q", ev.ID)
		return s
	}
	s.SelectedLimit = ev.ID
	s.Phase = PhaseSelecting
	s.LastError = ""
	s.Message = ""
	return s
}

func selectResult(s State, ev SelectResult) State {
	if s.Phase == PhaseApplying {
		s.LastError = "wait for the current apply to finish"
		return s
	}
	k, err := models.ParseMatchKey(ev.Key)
	if err != nil {
		s.LastError = err.Error()
		return s
	}
	i := s.resultIndex(k)
	if i < 0 {
		s.LastError = fmt.Sprintf("%s is not an unpaired result", k)
		return s
	}
	s.SelectedResult = s.UnpairedResults[i].String()
	s.Phase = PhaseSelecting
	s.LastError = ""
	s.Message = ""
	return s
}

func confirm(s State) State {
	retry := s.Phase == PhaseFailed
	if (s.Phase != PhaseSelecting && !retry) || s.SelectedLimit == "" || s.SelectedResult == "" {
		s.LastError = "select one unpaired limit and one unpaired result first"
		return s
	}
	s.Phase = PhaseApplying
	s.LastError = ""
	s.Message = ""
	return s
}

func applySucceeded(s State, ev ApplySucceeded) State {
	if s.Phase != PhaseApplying {
		return s
	}
	li := s.limitIndex(s.SelectedLimit)
	bound, err := models.ParseMatchKey(s.SelectedResult)
	if li < 0 || err != nil {
		s.Phase = PhaseFailed
		s.LastError = "selection changed while applying"
		return s
	}
	if ev.Report != nil {
		bound = ev.Report.Key
	}
	item := s.UnpairedLimits[li]
	original := item.Entry.Key()

	s.UnpairedLimits = slices.Delete(slices.Clone(s.UnpairedLimits), li, li+1)
	if ri := s.resultIndex(bound); ri >= 0 {
		s.UnpairedResults = slices.Delete(slices.Clone(s.UnpairedResults), ri, ri+1)
	}
	s.Paired = append(slices.Clone(s.Paired), PairedItem{
		Display:     original.String() + " -> " + bound.String(),
		Key:         bound,
		OriginalKey: original,
		EntryID:     item.Entry.ID,
		Report:      ev.Report,
		Reconciled:  true,
	})

	s.Phase = PhasePaired
	s.SelectedLimit = ""
	s.SelectedResult = ""
	s.LastError = ""
	s.Message = fmt.Sprintf("Paired %s with %s (%s)", original, bound, ev.Report)
	return s
}

func applyFailed(s State, ev ApplyFailed) State {
	if s.Phase != PhaseApplying {
		return s
	}
	s.Phase = PhaseFailed
	if ev.Err != nil {
		s.LastError = ev.Err.Error()
	} else {
		s.LastError = "apply failed"
	}
	return s
}
