package engine

import (
	"errors"
	"fmt"

	"github.com/limit-importer/backend/internal/models"
)

// LookupError means a key does not resolve inside the live hierarchy.
type LookupError struct {
	Key   models.MatchKey
	Level string // "signal path", "measurement" or "result"
	Err   error  // set when the session failed while looking
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: reading %s: %v", e.Key, e.Level, e.Err)
	}
	return fmt.Sprintf("%s: %s not found", e.Key, e.Level)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ShapeError means limit data does not fit the target result.
type ShapeError struct {
	Key     models.MatchKey
	Side    models.Side
	Channel int // -1 when the whole side is affected
	Reason  string
}

func (e *ShapeError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("%s: %s", e.Key, e.Reason)
	}
	if e.Channel < 0 {
		return fmt.Sprintf("%s %s: %s", e.Key, e.Side, e.Reason)
	}
	return fmt.Sprintf("%s %s ch%d: %s", e.Key, e.Side, e.Channel, e.Reason)
}

// ErrNothingApplied is returned when no unit of an entry was written.
var ErrNothingApplied = errors.New("no limit channel could be applied")

// ErrNoBounds is returned for entries with neither side enabled.
var ErrNoBounds = errors.New("entry has no upper or lower bound enabled")
