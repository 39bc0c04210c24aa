package sim

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/limit-importer/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// RigXML represents the raw structure of a rig description file.
type RigXML struct {
	XMLName xml.Name      `xml:"Rig" yaml:"-"`
	Name    string        `xml:"name,attr" yaml:"name"`
	Paths   []PathElement `xml:"SignalPath" yaml:"signalPaths"`
}

type PathElement struct {
	Name         string               `xml:"name,attr" yaml:"name"`
	Fail         string               `xml:"fail,attr,omitempty" yaml:"fail,omitempty"`
	Measurements []MeasurementElement `xml:"Measurement" yaml:"measurements"`
}

type MeasurementElement struct {
	Name   string         `xml:"name,attr" yaml:"name"`
	Fail   string         `xml:"fail,attr,omitempty" yaml:"fail,omitempty"`
	Graphs []GraphElement `xml:"Graph" yaml:"graphs"`
}

type GraphElement struct {
	Name         string `xml:"name,attr" yaml:"name"`
	Type         string `xml:"type,attr" yaml:"type"`
	Channels     int    `xml:"channels,attr" yaml:"channels"`
	Link         string `xml:"link,attr,omitempty" yaml:"link,omitempty"`
	FailChannels string `xml:"failChannels,attr,omitempty" yaml:"failChannels,omitempty"` // e.g. "1,3"
}

// LoadRig reads a rig description, choosing XML or YAML by extension.
func LoadRig(filePath string) (*Rig, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return ParseRigYAML(file)
	default:
		return ParseRigXML(file)
	}
}

// ParseRigXML parses a rig description in XML form.
func ParseRigXML(r io.Reader) (*Rig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw RigXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw.Build()
}

// ParseRigYAML parses a rig description in YAML form.
func ParseRigYAML(r io.Reader) (*Rig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw RigXML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw.Build()
}

// Build turns the raw description into a live simulated rig.
func (raw RigXML) Build() (*Rig, error) {
	rig := NewRig(raw.Name)
	for _, pe := range raw.Paths {
		p := rig.AddPath(pe.Name)
		if pe.Fail != "" {
			p.Fail(errors.New(pe.Fail))
		}
		for _, me := range pe.Measurements {
			m := p.AddMeasurement(me.Name)
			if me.Fail != "" {
				m.Fail(errors.New(me.Fail))
			}
			for _, ge := range me.Graphs {
				vt, err := models.ParseResultValueType(ge.Type)
				if err != nil {
					return nil, fmt.Errorf("graph %s/%s/%s: %w", pe.Name, me.Name, ge.Name, err)
				}
				if ge.Channels < 1 {
					return nil, fmt.Errorf("graph %s/%s/%s: channels must be at least 1", pe.Name, me.Name, ge.Name)
				}
				g := m.AddGraph(ge.Name, vt, ge.Channels)
				switch LinkMode(strings.ToLower(ge.Link)) {
				case LinkNone:
				case LinkReport:
					g.Link(LinkReport)
				case LinkError:
					g.Link(LinkError)
				default:
					return nil, fmt.Errorf("graph %s/%s/%s: unknown link mode %q", pe.Name, me.Name, ge.Name, ge.Link)
				}
				chans, err := parseChannelList(ge.FailChannels)
				if err != nil {
					return nil, fmt.Errorf("graph %s/%s/%s: %w", pe.Name, me.Name, ge.Name, err)
				}
				g.FailChannels(chans...)
			}
		}
	}
	return rig, nil
}

func parseChannelList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		ch, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid channel %q", part)
		}
		out = append(out, ch)
	}
	return out, nil
}
