// Package models contains domain types for the limit importer.
package models

import (
	"fmt"
	"slices"
	"strings"
)

// ResultValueType is the shape of a measurement result.
type ResultValueType string

const (
	ValueTypeXY    ResultValueType = "XY"
	ValueTypeMeter ResultValueType = "Meter"
)

// ParseResultValueType accepts the two known value types in any letter case.
func ParseResultValueType(s string) (ResultValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xy":
		return ValueTypeXY, nil
	case "meter":
		return ValueTypeMeter, nil
	}
	return "", fmt.Errorf("unknown result value type %q", s)
}

// Side selects the upper or lower bound of a limit.
type Side string

const (
	SideUpper Side = "upper"
	SideLower Side = "lower"
)

// Sides lists both bounds in application order.
var Sides = []Side{SideUpper, SideLower}

// LimitEntry is one authored limit specification.
// Curve arrays are flattened across channels: channel i owns the i-th
// equal-sized slice.
type LimitEntry struct {
	ID              string          `json:"id,omitempty" yaml:"-" msgpack:"-"`
	SignalPathName  string          `json:"signalPathName" yaml:"signalPathName" msgpack:"signalPathName"`
	MeasurementName string          `json:"measurementName" yaml:"measurementName" msgpack:"measurementName"`
	ResultName      string          `json:"resultName" yaml:"resultName" msgpack:"resultName"`
	ResultValueType ResultValueType `json:"resultValueType" yaml:"resultValueType" msgpack:"resultValueType"`

	XUpper []float64 `json:"xUpper,omitempty" yaml:"xUpper,omitempty" msgpack:"xUpper,omitempty"`
	YUpper []float64 `json:"yUpper,omitempty" yaml:"yUpper,omitempty" msgpack:"yUpper,omitempty"`
	XLower []float64 `json:"xLower,omitempty" yaml:"xLower,omitempty" msgpack:"xLower,omitempty"`
	YLower []float64 `json:"yLower,omitempty" yaml:"yLower,omitempty" msgpack:"yLower,omitempty"`

	MeterUpper *float64 `json:"meterUpper,omitempty" yaml:"meterUpper,omitempty" msgpack:"meterUpper,omitempty"`
	MeterLower *float64 `json:"meterLower,omitempty" yaml:"meterLower,omitempty" msgpack:"meterLower,omitempty"`
}

// Key returns the composite identity used for matching.
func (e LimitEntry) Key() MatchKey {
	return MatchKey{
		SignalPath:  e.SignalPathName,
		Measurement: e.MeasurementName,
		Result:      e.ResultName,
	}
}

// WithKey returns a copy of the entry bound to a different result.
func (e LimitEntry) WithKey(k MatchKey) LimitEntry {
	c := e
	c.SignalPathName = k.SignalPath
	c.MeasurementName = k.Measurement
	c.ResultName = k.Result
	c.XUpper = slices.Clone(e.XUpper)
	c.YUpper = slices.Clone(e.YUpper)
	c.XLower = slices.Clone(e.XLower)
	c.YLower = slices.Clone(e.YLower)
	return c
}

// Curve returns the flattened X and Y arrays for one side.
func (e LimitEntry) Curve(side Side) (x, y []float64) {
	if side == SideUpper {
		return e.XUpper, e.YUpper
	}
	return e.XLower, e.YLower
}

// Meter returns the scalar bound for one side, nil when absent.
func (e LimitEntry) Meter(side Side) *float64 {
	if side == SideUpper {
		return e.MeterUpper
	}
	return e.MeterLower
}

// Enabled reports whether the given side carries a usable bound.
func (e LimitEntry) Enabled(side Side) bool {
	if e.ResultValueType == ValueTypeMeter {
		return e.Meter(side) != nil
	}
	x, y := e.Curve(side)
	return len(x) > 0 && len(y) > 0
}

// UpperEnabled reports whether an upper bound is present.
func (e LimitEntry) UpperEnabled() bool { return e.Enabled(SideUpper) }

// LowerEnabled reports whether a lower bound is present.
func (e LimitEntry) LowerEnabled() bool { return e.Enabled(SideLower) }
