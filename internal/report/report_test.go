package report

import (
	"bytes"
	"testing"

	"github.com/limit-importer/backend/internal/engine"
	"github.com/limit-importer/backend/internal/hardware/sim"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(entries ...models.LimitEntry) reconcile.State {
	rig := sim.NewRig("bench")
	m := rig.AddPath("PathA").AddMeasurement("Meas1")
	m.AddGraph("RespCurve", models.ValueTypeXY, 2)
	_, out := engine.New(rig).Run(entries)
	return reconcile.NewState(out)
}

func entry(path string, x []float64) models.LimitEntry {
	return models.LimitEntry{
		SignalPathName:  path,
		MeasurementName: "Meas1",
		ResultName:      "RespCurve",
		ResultValueType: models.ValueTypeXY,
		XUpper:          x,
		YUpper:          make([]float64, len(x)),
	}
}

func TestAllPairedRendersFlatList(t *testing.T) {
	s := Build(run(entry("PathA", []float64{1, 2, 3, 4})))

	assert.True(t, s.AllPaired)
	assert.Empty(t, s.RepairHint)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "All 1 limits paired.")
	assert.Contains(t, out, "PathA|Meas1|RespCurve")
	assert.NotContains(t, out, "Unpaired")
}

func TestPartialAndUnpaired(t *testing.T) {
	s := Build(run(
		entry("PathA", []float64{1, 2, 4, 3}),
		entry("PathX", []float64{1, 2}),
	))

	assert.False(t, s.AllPaired)
	require.Len(t, s.Paired, 1)
	assert.Equal(t, StatusPartial, s.Paired[0].Status)
	assert.Equal(t, 1, s.PartialCount)
	require.Len(t, s.UnpairedLimits, 1)
	assert.Contains(t, s.UnpairedLimits[0].Detail, "signal path not found")
	assert.Empty(t, s.UnpairedResults)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "Paired (1, 1 partial):")
	assert.Contains(t, out, "[partial]")
	assert.Contains(t, out, "upper ch1 skipped")
	assert.Contains(t, out, "Unpaired limits (1):")
	assert.Contains(t, out, "Unpaired results (0):")
	assert.Contains(t, out, DefaultRepairHint)
}

func TestUnpairedResultsListed(t *testing.T) {
	s := Build(run())

	assert.False(t, s.AllPaired)
	require.Len(t, s.UnpairedResults, 1)
	assert.Equal(t, "PathA|Meas1|RespCurve", s.UnpairedResults[0].Key)
}
