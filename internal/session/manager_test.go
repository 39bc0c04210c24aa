package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/limit-importer/backend/internal/hardware/sim"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/parser"
	"github.com/limit-importer/backend/internal/reconcile"
	"github.com/limit-importer/backend/internal/runlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const limitsYAML = `
- signalPathName: PathA
  measurementName: Meas1
  resultName: RespCurve
  resultValueType: XY
  xUpper: [1, 2, 3, 4]
  yUpper: [10, 20, 30, 40]
- signalPathName: PathX
  measurementName: MeasY
  resultName: ResZ
  resultValueType: Meter
  meterLower: -3.0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func benchRig() *sim.Rig {
	rig := sim.NewRig("bench")
	m := rig.AddPath("PathA").AddMeasurement("Meas1")
	m.AddGraph("RespCurve", models.ValueTypeXY, 2)
	m.AddGraph("Level", models.ValueTypeMeter, 4)
	return rig
}

type memAudit struct {
	lines    map[string]*runlog.Memory
	outcomes map[string]*models.Outcome
}

func newMemAudit() *memAudit {
	return &memAudit{lines: map[string]*runlog.Memory{}, outcomes: map[string]*models.Outcome{}}
}

func (a *memAudit) Sink(id string) runlog.Sink {
	a.lines[id] = runlog.NewMemory()
	return a.lines[id]
}

func (a *memAudit) RecordOutcome(_ context.Context, id string, out *models.Outcome) error {
	a.outcomes[id] = out
	return nil
}

func TestStartImportAndReconcile(t *testing.T) {
	audit := newMemAudit()
	m := NewManager(Config{Hardware: benchRig(), Audit: audit})

	sess, err := m.StartImport("file-1", "limits.yaml", writeFile(t, "stored.yaml", limitsYAML))
	require.NoError(t, err)

	assert.Equal(t, models.ImportStatusReconciling, sess.Status)
	assert.Equal(t, 2, sess.EntryCount)
	assert.Equal(t, 2, sess.ResultCount)
	assert.Equal(t, 1, sess.PairedCount)
	assert.NotNil(t, audit.outcomes[sess.ID])
	assert.NotEmpty(t, audit.lines[sess.ID].Lines())

	sum, err := m.Summary(sess.ID)
	require.NoError(t, err)
	assert.False(t, sum.AllPaired)
	assert.Contains(t, sum.RepairHint, sess.ID)

	ctrl, err := m.Controller(sess.ID)
	require.NoError(t, err)
	ctrl.Dispatch(reconcile.SelectLimit{ID: "1"})
	ctrl.Dispatch(reconcile.SelectResult{Key: "PathA|Meas1|Level"})
	state := ctrl.Dispatch(reconcile.Confirm{})
	require.Equal(t, reconcile.PhasePaired, state.Phase, state.LastError)

	got, ok := m.GetImport(sess.ID)
	require.True(t, ok)
	assert.Equal(t, models.ImportStatusComplete, got.Status)
	assert.Equal(t, 2, got.PairedCount)

	persisted := audit.outcomes[sess.ID]
	require.NotNil(t, persisted)
	assert.Len(t, persisted.Paired, 2)
	assert.Empty(t, persisted.UnpairedLimits)
	assert.Empty(t, persisted.UnpairedResults)
	assert.Equal(t, "PathA|Meas1|Level", persisted.Paired[1].Key.String())

	lines, err := m.RunLog(sess.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, lines)
}

func TestStartImportRejectsBadFile(t *testing.T) {
	m := NewManager(Config{Hardware: benchRig()})

	sess, err := m.StartImport("file-1", "limits.yaml", writeFile(t, "stored.yaml", "   \n"))

	assert.True(t, parser.IsFileError(err, parser.FileEmpty))
	require.NotNil(t, sess)
	assert.Equal(t, models.ImportStatusError, sess.Status)
	_, err = m.Controller(sess.ID)
	assert.ErrorIs(t, err, ErrNotReconcilable)

	_, err = m.StartImport("file-2", "gone.yaml", filepath.Join(t.TempDir(), "gone.yaml"))
	assert.True(t, parser.IsFileError(err, parser.FileMissing))
}

func TestUnknownImport(t *testing.T) {
	m := NewManager(Config{Hardware: benchRig()})

	_, ok := m.GetImport("nope")
	assert.False(t, ok)
	_, err := m.Summary("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = m.RunLog("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, m.TouchImport("nope"))
}

func TestCleanupOldImports(t *testing.T) {
	m := NewManager(Config{Hardware: benchRig()})
	sess, err := m.StartImport("f", "limits.yaml", writeFile(t, "l.yaml", limitsYAML))
	require.NoError(t, err)

	assert.Equal(t, 0, m.CleanupOldImports(time.Hour))
	m.mu.Lock()
	m.imports[sess.ID].LastAccessed = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()
	assert.Equal(t, 1, m.CleanupOldImports(time.Hour))
	assert.Equal(t, 0, m.Count())
}

func TestEvictionKeepsRecentImports(t *testing.T) {
	m := NewManager(Config{Hardware: benchRig(), MaxImports: 2})
	path := writeFile(t, "l.yaml", limitsYAML)

	first, err := m.StartImport("f", "limits.yaml", path)
	require.NoError(t, err)
	_, err = m.StartImport("f", "limits.yaml", path)
	require.NoError(t, err)

	m.mu.Lock()
	m.imports[first.ID].LastAccessed = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	_, err = m.StartImport("f", "limits.yaml", path)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Count())
	_, ok := m.GetImport(first.ID)
	assert.False(t, ok)
}

func TestJanitorStopsWithContext(t *testing.T) {
	m := NewManager(Config{Hardware: benchRig()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	<-done
}

func TestJanitorUsesConfiguredMaxAge(t *testing.T) {
	m := NewManager(Config{Hardware: benchRig(), MaxAge: time.Minute})
	sess, err := m.StartImport("f", "limits.yaml", writeFile(t, "l.yaml", limitsYAML))
	require.NoError(t, err)
	m.mu.Lock()
	m.imports[sess.ID].LastAccessed = time.Now().Add(-2 * time.Minute)
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()
	assert.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestIndex(t *testing.T) {
	m := NewManager(Config{Hardware: benchRig()})
	idx := m.Index()
	assert.Equal(t, 2, idx.Len())
}

func TestLogAuditorAndFanOut(t *testing.T) {
	shared := runlog.NewMemory()
	mem := newMemAudit()
	m := NewManager(Config{Hardware: benchRig(), Audit: Auditors{LogAuditor{Log: shared}, mem}})

	sess, err := m.StartImport("f", "limits.yaml", writeFile(t, "l.yaml", limitsYAML))
	require.NoError(t, err)

	assert.NotNil(t, mem.outcomes[sess.ID])
	lines := shared.Lines()
	require.NotEmpty(t, lines)
	for _, l := range lines {
		assert.Contains(t, l, "["+shortID(sess.ID)+"]")
	}
	assert.Contains(t, strings.Join(lines, "\n"), "unpaired_limit PathX|MeasY|ResZ")
}
