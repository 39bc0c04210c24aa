package models

import "time"

// ResultInfo describes one result/graph under a measurement.
type ResultInfo struct {
	Name      string          `json:"name"`
	ValueType ResultValueType `json:"valueType,omitempty"`
	Channels  int             `json:"channels"`
}

// MeasurementNode is a measurement and its ordered results.
type MeasurementNode struct {
	Name    string       `json:"name"`
	Results []ResultInfo `json:"results"`
}

// SignalPathNode is a signal path and its ordered measurements.
type SignalPathNode struct {
	Name         string            `json:"name"`
	Measurements []MeasurementNode `json:"measurements"`
}

// HierarchyIndex is a snapshot of the live session hierarchy.
// It is rebuilt for every import and never persisted.
type HierarchyIndex struct {
	Paths   []SignalPathNode `json:"paths"`
	Skipped []string         `json:"skipped,omitempty"` // branches omitted after read failures
	BuiltAt time.Time        `json:"builtAt"`

	paths        map[string]int
	measurements map[[2]string]int
	results      map[MatchKey]MatchKey
}

// NewHierarchyIndex creates an empty index.
func NewHierarchyIndex() *HierarchyIndex {
	return &HierarchyIndex{
		Paths:        make([]SignalPathNode, 0),
		BuiltAt:      time.Now(),
		paths:        make(map[string]int),
		measurements: make(map[[2]string]int),
		results:      make(map[MatchKey]MatchKey),
	}
}

// AddPath registers a signal path; repeated names collapse onto the first.
func (h *HierarchyIndex) AddPath(path string) {
	norm := NormalizeName(path)
	if _, ok := h.paths[norm]; ok {
		return
	}
	h.paths[norm] = len(h.Paths)
	h.Paths = append(h.Paths, SignalPathNode{Name: path, Measurements: make([]MeasurementNode, 0)})
}

// AddMeasurement registers a measurement under a path, adding the path if needed.
func (h *HierarchyIndex) AddMeasurement(path, measurement string) {
	h.AddPath(path)
	pi := h.paths[NormalizeName(path)]
	mk := [2]string{NormalizeName(path), NormalizeName(measurement)}
	if _, ok := h.measurements[mk]; ok {
		return
	}
	node := &h.Paths[pi]
	h.measurements[mk] = len(node.Measurements)
	node.Measurements = append(node.Measurements, MeasurementNode{Name: measurement, Results: make([]ResultInfo, 0)})
}

// AddResult registers a result under a measurement.
func (h *HierarchyIndex) AddResult(path, measurement string, info ResultInfo) {
	h.AddMeasurement(path, measurement)
	pi := h.paths[NormalizeName(path)]
	mi := h.measurements[[2]string{NormalizeName(path), NormalizeName(measurement)}]
	node := &h.Paths[pi].Measurements[mi]

	key := MatchKey{SignalPath: h.Paths[pi].Name, Measurement: node.Name, Result: info.Name}
	if _, ok := h.results[key.Normalized()]; ok {
		return
	}
	h.results[key.Normalized()] = key
	node.Results = append(node.Results, info)
}

// MarkSkipped records a branch that could not be read.
func (h *HierarchyIndex) MarkSkipped(branch string) {
	h.Skipped = append(h.Skipped, branch)
}

// HasPath reports whether the signal path exists.
func (h *HierarchyIndex) HasPath(path string) bool {
	_, ok := h.paths[NormalizeName(path)]
	return ok
}

// HasMeasurement reports whether the measurement exists under the path.
func (h *HierarchyIndex) HasMeasurement(path, measurement string) bool {
	_, ok := h.measurements[[2]string{NormalizeName(path), NormalizeName(measurement)}]
	return ok
}

// Resolve returns the key as spelled by the live session.
func (h *HierarchyIndex) Resolve(k MatchKey) (MatchKey, bool) {
	live, ok := h.results[k.Normalized()]
	return live, ok
}

// Result returns the indexed description of a result.
func (h *HierarchyIndex) Result(k MatchKey) (ResultInfo, bool) {
	live, ok := h.Resolve(k)
	if !ok {
		return ResultInfo{}, false
	}
	pi := h.paths[NormalizeName(live.SignalPath)]
	mi := h.measurements[[2]string{NormalizeName(live.SignalPath), NormalizeName(live.Measurement)}]
	for _, r := range h.Paths[pi].Measurements[mi].Results {
		if NormalizeName(r.Name) == NormalizeName(live.Result) {
			return r, true
		}
	}
	return ResultInfo{}, false
}

// Keys lists every result key in hierarchy order.
func (h *HierarchyIndex) Keys() []MatchKey {
	keys := make([]MatchKey, 0, len(h.results))
	for _, p := range h.Paths {
		for _, m := range p.Measurements {
			for _, r := range m.Results {
				keys = append(keys, MatchKey{SignalPath: p.Name, Measurement: m.Name, Result: r.Name})
			}
		}
	}
	return keys
}

// Len returns the number of indexed results.
func (h *HierarchyIndex) Len() int {
	return len(h.results)
}
