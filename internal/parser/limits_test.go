// limits_test.go - Tests for limit file loading and format detection
package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/limit-importer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestFileWithName creates a temporary file with a specific name
func createTestFileWithName(t *testing.T, name string, content []byte) string {
	filePath := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return filePath
}

const yamlLimits = `
- signalPathName: PathA
  measurementName: Meas1
  resultName: RespCurve
  resultValueType: XY
  xUpper: [20, 1000, 20, 1000]
  yUpper: [1, 1, 2, 2]
- signalPathName: PathA
  measurementName: Meas2
  resultName: Level
  resultValueType: meter
  meterUpper: -3.0
`

func TestLoadLimitsYAML(t *testing.T) {
	path := createTestFileWithName(t, "limits.yaml", []byte(yamlLimits))

	entries, err := LoadLimits(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "0", entries[0].ID)
	assert.Equal(t, "PathA|Meas1|RespCurve", entries[0].Key().String())
	assert.Equal(t, []float64{20, 1000, 20, 1000}, entries[0].XUpper)
	assert.True(t, entries[0].UpperEnabled())
	assert.False(t, entries[0].LowerEnabled())

	assert.Equal(t, "1", entries[1].ID)
	assert.Equal(t, models.ValueTypeMeter, entries[1].ResultValueType)
	require.NotNil(t, entries[1].MeterUpper)
	assert.Equal(t, -3.0, *entries[1].MeterUpper)
	assert.Nil(t, entries[1].MeterLower)
}

func TestDecodeLimitsJSON(t *testing.T) {
	content := `[{"signalPathName":"PathA","measurementName":"Meas1","resultName":"RespCurve",
	  "resultValueType":"XY","xLower":[1,2],"yLower":[0,0],"xUpper":null}]`

	entries, err := DecodeLimits("upload.json", strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].LowerEnabled())
	assert.False(t, entries[0].UpperEnabled())
}

func TestDecodeLimitsSniffsWithoutExtension(t *testing.T) {
	entries, err := DecodeLimits("payload", strings.NewReader(`  [{"signalPathName":"P","measurementName":"M","resultName":"R","resultValueType":"Meter","meterLower":1.5}]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1.5, *entries[0].MeterLower)

	entries, err = DecodeLimits("payload", strings.NewReader(yamlLimits))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDecodeLimitsMsgpack(t *testing.T) {
	upper := 4.0
	in := []models.LimitEntry{{
		SignalPathName:  "PathA",
		MeasurementName: "Meas1",
		ResultName:      "Level",
		ResultValueType: models.ValueTypeMeter,
		MeterUpper:      &upper,
	}}
	data, err := EncodeMsgpack(in)
	require.NoError(t, err)

	// by extension and by content
	for _, name := range []string{"limits.msgpack", "blob"} {
		entries, err := DecodeLimits(name, bytes.NewReader(data))
		require.NoError(t, err, name)
		require.Len(t, entries, 1)
		assert.Equal(t, 4.0, *entries[0].MeterUpper)
	}
}

func TestDecodeLimitsCSV(t *testing.T) {
	content := "signalPathName,measurementName,resultName,resultValueType,xUpper,yUpper,xLower,yLower,meterUpper,meterLower\n" +
		"PathA,Meas1,RespCurve,XY,20;1000;20;1000,1;1;2;2,,,,\n" +
		"PathA,Meas2,Level,Meter,,,,,-3,-9.5\n"

	entries, err := DecodeLimits("export.csv", strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []float64{1, 1, 2, 2}, entries[0].YUpper)
	assert.Nil(t, entries[0].XLower)
	assert.Equal(t, -9.5, *entries[1].MeterLower)

	_, err = DecodeLimits("bad.csv", strings.NewReader("signalPathName,resultName\nA,B\n"))
	assert.True(t, IsFileError(err, FileMalformed))

	_, err = DecodeLimits("bad.csv", strings.NewReader(content+"PathA,M,R,XY,1;x,,,,,\n"))
	assert.True(t, IsFileError(err, FileMalformed))
}

func TestDecodeLimitsErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		kind    FileErrorKind
	}{
		{"empty payload", "a.yaml", "   \n", FileEmpty},
		{"empty yaml list", "a.yaml", "[]", FileEmpty},
		{"empty json list", "a.json", "[]", FileEmpty},
		{"json object is not a list", "a.json", `{"signalPathName":"A"}`, FileMalformed},
		{"yaml mapping is not a list", "a.yaml", "signalPathName: A\n", FileMalformed},
		{"broken json", "a.json", `[{"signalPathName":`, FileMalformed},
		{"unknown value type", "a.yaml", "- {signalPathName: A, measurementName: B, resultName: C, resultValueType: Bar}", FileMalformed},
		{"missing result name", "a.yaml", "- {signalPathName: A, measurementName: B, resultValueType: XY}", FileMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := DecodeLimits(tt.file, strings.NewReader(tt.content))
			assert.Nil(t, entries)
			require.Error(t, err)
			assert.True(t, IsFileError(err, tt.kind), "got %v", err)
		})
	}
}

func TestLoadLimitsMissingFile(t *testing.T) {
	_, err := LoadLimits(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, IsFileError(err, FileMissing))
	assert.Contains(t, err.Error(), "not found")
}

func TestRegistryLookup(t *testing.T) {
	r := GetGlobalRegistry()
	d, err := r.GetDecoderByName("YAML")
	require.NoError(t, err)
	assert.Equal(t, "yaml", d.Name())

	_, err = r.GetDecoderByName("toml")
	assert.Error(t, err)

	d, err = r.FindDecoder("limits.YML", nil)
	require.NoError(t, err)
	assert.Equal(t, "yaml", d.Name())
}
