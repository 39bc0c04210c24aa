package runlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAppendsTimestampedLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	w.Append("first")
	Appendf(w, "second %d", 2)

	assert.Equal(t, "2025-01-02 03:04:05.000 first\n2025-01-02 03:04:05.000 second 2\n", buf.String())
}

func TestFileSinkAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	s, err := OpenFile(path)
	require.NoError(t, err)
	s.Append("one")
	require.NoError(t, s.Close())

	s, err = OpenFile(path)
	require.NoError(t, err)
	s.Append("two")
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], " one"))
	assert.True(t, strings.HasSuffix(lines[1], " two"))
}

func TestMultiAndMemory(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	m := Multi{a, nil, b, Discard}
	m.Append("hello")

	assert.Equal(t, []string{"hello"}, a.Lines())
	assert.Equal(t, []string{"hello"}, b.Lines())

	// Lines returns a copy
	lines := a.Lines()
	lines[0] = "changed"
	assert.Equal(t, "hello", a.Lines()[0])
}

func TestAppendfNilSink(t *testing.T) {
	assert.NotPanics(t, func() { Appendf(nil, "ignored %s", "x") })
}
