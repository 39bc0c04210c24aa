package reconcile

import (
	"errors"
	"sync"
	"testing"

	"github.com/limit-importer/backend/internal/engine"
	"github.com/limit-importer/backend/internal/hardware/sim"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/runlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmatchedRun(t *testing.T) (*sim.Rig, *sim.Graph, State) {
	t.Helper()
	rig := sim.NewRig("bench")
	g := rig.AddPath("PathA").AddMeasurement("Meas1").AddGraph("RespCurve", models.ValueTypeXY, 2)
	entry := models.LimitEntry{
		ID:              "0",
		SignalPathName:  "PathX",
		MeasurementName: "MeasY",
		ResultName:      "ResZ",
		ResultValueType: models.ValueTypeXY,
		XUpper:          []float64{1, 2, 3, 4},
		YUpper:          []float64{5, 6, 7, 8},
	}
	_, out := engine.New(rig).Run([]models.LimitEntry{entry})
	require.Len(t, out.UnpairedLimits, 1)
	require.Len(t, out.UnpairedResults, 1)
	return rig, g, NewState(out)
}

func TestReconcilePairsLeftovers(t *testing.T) {
	rig, g, state := unmatchedRun(t)
	log := runlog.NewMemory()
	c := NewController(state, engine.NewApplier(rig), log, nil)

	s := c.Dispatch(SelectLimit{ID: "0"})
	assert.Equal(t, PhaseSelecting, s.Phase)
	s = c.Dispatch(SelectResult{Key: "patha|meas1|respcurve"})
	assert.Equal(t, "PathA|Meas1|RespCurve", s.SelectedResult)
	s = c.Dispatch(Confirm{})

	assert.Equal(t, PhasePaired, s.Phase)
	assert.Empty(t, s.UnpairedLimits)
	assert.Empty(t, s.UnpairedResults)
	require.Len(t, s.Paired, 1)
	assert.Equal(t, "PathX|MeasY|ResZ -> PathA|Meas1|RespCurve", s.Paired[0].Display)
	assert.True(t, s.Paired[0].Reconciled)
	assert.True(t, s.Complete())

	_, ok := g.Curve(models.SideUpper, 1)
	assert.True(t, ok)
	assert.NotEmpty(t, log.Lines())

	s = c.Dispatch(Dismiss{})
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestStateOutcomeCountsReconciledPairs(t *testing.T) {
	rig, _, state := unmatchedRun(t)

	before := state.Outcome()
	assert.Empty(t, before.Paired)
	require.Len(t, before.UnpairedLimits, 1)
	assert.Equal(t, "PathX|MeasY|ResZ", before.UnpairedLimits[0].Key.String())
	assert.Len(t, before.UnpairedResults, 1)

	c := NewController(state, engine.NewApplier(rig), nil, nil)
	c.Dispatch(SelectLimit{ID: "0"})
	c.Dispatch(SelectResult{Key: "PathA|Meas1|RespCurve"})
	after := c.Dispatch(Confirm{}).Outcome()

	require.Len(t, after.Paired, 1)
	assert.Equal(t, "PathA|Meas1|RespCurve", after.Paired[0].Key.String())
	assert.Equal(t, "0", after.Paired[0].Entry.ID)
	assert.NotNil(t, after.Paired[0].Report)
	assert.True(t, after.Complete())
}

type failingApplier struct{ err error }

func (f failingApplier) Apply(models.LimitEntry) (*models.ApplyReport, error) { return nil, f.err }

func TestReconcileFailureKeepsItemsUnpaired(t *testing.T) {
	_, _, state := unmatchedRun(t)
	c := NewController(state, failingApplier{errors.New("write rejected")}, nil, nil)

	c.Dispatch(SelectLimit{ID: "0"})
	c.Dispatch(SelectResult{Key: "PathA|Meas1|RespCurve"})
	s := c.Dispatch(Confirm{})

	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, "write rejected", s.LastError)
	assert.Len(t, s.UnpairedLimits, 1)
	assert.Len(t, s.UnpairedResults, 1)
	assert.Empty(t, s.Paired)

	s = c.Dispatch(Dismiss{})
	assert.Equal(t, PhaseSelecting, s.Phase)
	assert.Equal(t, "0", s.SelectedLimit)
}

func TestReducerRejectsOutOfOrderEvents(t *testing.T) {
	_, _, state := unmatchedRun(t)

	s := Reduce(state, Confirm{})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.NotEmpty(t, s.LastError)

	s = Reduce(state, SelectLimit{ID: "missing"})
	assert.Contains(t, s.LastError, "missing")

	s = Reduce(state, SelectResult{Key: "not a key"})
	assert.NotEmpty(t, s.LastError)

	s = Reduce(state, SelectResult{Key: "A|B|C"})
	assert.Contains(t, s.LastError, "not an unpaired result")

	s = Reduce(state, ApplySucceeded{})
	assert.Equal(t, state.Phase, s.Phase)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	_, _, state := unmatchedRun(t)
	s := Reduce(state, SelectLimit{ID: "0"})
	s = Reduce(s, SelectResult{Key: "PathA|Meas1|RespCurve"})
	s = Reduce(s, Confirm{})
	applying := s

	s = Reduce(applying, ApplySucceeded{Report: &models.ApplyReport{
		Key:   models.MatchKey{SignalPath: "PathA", Measurement: "Meas1", Result: "RespCurve"},
		Units: []models.UnitResult{{Side: models.SideUpper, Status: models.UnitApplied}},
	}})

	assert.Equal(t, PhasePaired, s.Phase)
	assert.Len(t, applying.UnpairedLimits, 1)
	assert.Len(t, applying.UnpairedResults, 1)
	assert.Empty(t, applying.Paired)
}

func TestCancelClearsSelection(t *testing.T) {
	_, _, state := unmatchedRun(t)
	s := Reduce(state, SelectLimit{ID: "0"})
	s = Reduce(s, Cancel{})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Empty(t, s.SelectedLimit)
}

func TestSubscribersSeeEveryState(t *testing.T) {
	rig, _, state := unmatchedRun(t)
	c := NewController(state, engine.NewApplier(rig), nil, nil)

	var (
		mu     sync.Mutex
		phases []Phase
	)
	unsubscribe := c.Subscribe(func(s State) {
		mu.Lock()
		phases = append(phases, s.Phase)
		mu.Unlock()
	})

	c.Dispatch(SelectLimit{ID: "0"})
	c.Dispatch(SelectResult{Key: "PathA|Meas1|RespCurve"})
	c.Dispatch(Confirm{})
	unsubscribe()
	c.Dispatch(Dismiss{})

	assert.Equal(t, []Phase{PhaseSelecting, PhaseSelecting, PhasePaired}, phases)
}

func TestDecodeEvent(t *testing.T) {
	e, err := DecodeEvent([]byte(`{"type":"selectLimit","id":"3"}`))
	require.NoError(t, err)
	assert.Equal(t, SelectLimit{ID: "3"}, e)

	e, err = DecodeEvent([]byte(`{"type":"select_result","key":"A|B|C"}`))
	require.NoError(t, err)
	assert.Equal(t, SelectResult{Key: "A|B|C"}, e)

	_, err = DecodeEvent([]byte(`{"type":"applySucceeded"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeEvent([]byte(`{`))
	assert.Error(t, err)
}
