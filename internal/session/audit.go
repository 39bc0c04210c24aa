package session

import (
	"context"
	"errors"

	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/runlog"
)

// LogAuditor writes every import's run log and outcome to one shared sink,
// typically an append-only runlog.FileSink.
type LogAuditor struct {
	Log runlog.Sink
}

func (a LogAuditor) Sink(importID string) runlog.Sink {
	return prefixed{sink: a.Log, prefix: "[" + shortID(importID) + "] "}
}

func (a LogAuditor) RecordOutcome(_ context.Context, importID string, out *models.Outcome) error {
	sink := a.Sink(importID)
	for _, group := range [][]models.PairingOutcome{out.Paired, out.UnpairedLimits, out.UnpairedResults} {
		for _, p := range group {
			detail := p.Reason
			if detail == "" && p.Report != nil {
				detail = p.Report.String()
			}
			runlog.Appendf(sink, "%s %s %s", p.Kind, p.Key, detail)
		}
	}
	return nil
}

type prefixed struct {
	sink   runlog.Sink
	prefix string
}

func (p prefixed) Append(message string) { p.sink.Append(p.prefix + message) }

// Auditors fans out to several auditors.
type Auditors []Auditor

func (as Auditors) Sink(importID string) runlog.Sink {
	sinks := make(runlog.Multi, 0, len(as))
	for _, a := range as {
		sinks = append(sinks, a.Sink(importID))
	}
	return sinks
}

func (as Auditors) RecordOutcome(ctx context.Context, importID string, out *models.Outcome) error {
	var errs []error
	for _, a := range as {
		errs = append(errs, a.RecordOutcome(ctx, importID, out))
	}
	return errors.Join(errs...)
}
