package parser

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/limit-importer/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// YAMLDecoder handles YAML limit lists.
type YAMLDecoder struct{}

func NewYAMLDecoder() *YAMLDecoder { return &YAMLDecoder{} }

func (d *YAMLDecoder) Name() string { return "yaml" }

func (d *YAMLDecoder) Extensions() []string { return []string{".yaml", ".yml"} }

// Sniff accepts any payload; YAML is the fallback format.
func (d *YAMLDecoder) Sniff(data []byte) bool { return true }

func (d *YAMLDecoder) Decode(data []byte) ([]models.LimitEntry, error) {
	var entries []models.LimitEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// JSONDecoder handles JSON arrays of limit records.
type JSONDecoder struct{}

func NewJSONDecoder() *JSONDecoder { return &JSONDecoder{} }

func (d *JSONDecoder) Name() string { return "json" }

func (d *JSONDecoder) Extensions() []string { return []string{".json"} }

func (d *JSONDecoder) Sniff(data []byte) bool {
	c := firstNonSpace(data)
	return c == '[' || c == '{'
}

func (d *JSONDecoder) Decode(data []byte) ([]models.LimitEntry, error) {
	var entries []models.LimitEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// MsgpackDecoder handles MessagePack arrays of limit records, the form the
// session store hands over after decryption.
type MsgpackDecoder struct{}

func NewMsgpackDecoder() *MsgpackDecoder { return &MsgpackDecoder{} }

func (d *MsgpackDecoder) Name() string { return "msgpack" }

func (d *MsgpackDecoder) Extensions() []string { return []string{".msgpack", ".mpk"} }

func (d *MsgpackDecoder) Sniff(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	c := data[0]
	return (c >= 0x90 && c <= 0x9f) || c == 0xdc || c == 0xdd
}

func (d *MsgpackDecoder) Decode(data []byte) ([]models.LimitEntry, error) {
	var entries []models.LimitEntry
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EncodeMsgpack encodes entries in the form MsgpackDecoder reads.
func EncodeMsgpack(entries []models.LimitEntry) ([]byte, error) {
	return msgpack.Marshal(entries)
}

// CSVDecoder handles spreadsheet exports: one record per row, arrays as
// semicolon- or space-separated numbers.
// Header: signalPathName,measurementName,resultName,resultValueType,xUpper,yUpper,xLower,yLower,meterUpper,meterLower
type CSVDecoder struct{}

func NewCSVDecoder() *CSVDecoder { return &CSVDecoder{} }

func (d *CSVDecoder) Name() string { return "csv" }

func (d *CSVDecoder) Extensions() []string { return []string{".csv"} }

func (d *CSVDecoder) Sniff(data []byte) bool {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	return bytes.Contains(line, []byte("signalPathName,"))
}

var csvRequired = []string{"signalPathName", "measurementName", "resultName", "resultValueType"}

func (d *CSVDecoder) Decode(data []byte) ([]models.LimitEntry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, c := range csvRequired {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %s", c)
		}
	}

	var entries []models.LimitEntry
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		e := models.LimitEntry{
			SignalPathName:  cell("signalPathName"),
			MeasurementName: cell("measurementName"),
			ResultName:      cell("resultName"),
			ResultValueType: models.ResultValueType(cell("resultValueType")),
		}
		arrays := []struct {
			col string
			dst *[]float64
		}{
			{"xUpper", &e.XUpper}, {"yUpper", &e.YUpper},
			{"xLower", &e.XLower}, {"yLower", &e.YLower},
		}
		for _, a := range arrays {
			if *a.dst, err = parseFloatList(cell(a.col)); err != nil {
				return nil, fmt.Errorf("line %d %s: %w", line, a.col, err)
			}
		}
		if e.MeterUpper, err = parseOptionalFloat(cell("meterUpper")); err != nil {
			return nil, fmt.Errorf("line %d meterUpper: %w", line, err)
		}
		if e.MeterLower, err = parseOptionalFloat(cell("meterLower")); err != nil {
			return nil, fmt.Errorf("line %d meterLower: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseFloatList(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ' ' })
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
