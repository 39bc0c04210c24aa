package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/limit-importer/backend/internal/models"
)

// Decoder turns a limit payload into entries.
type Decoder interface {
	// Name returns the unique name of the decoder.
	Name() string
	// Extensions lists file extensions (with dot) claimed by the decoder.
	Extensions() []string
	// Sniff reports whether the payload looks like this format.
	Sniff(data []byte) bool
	// Decode parses the whole payload.
	Decode(data []byte) ([]models.LimitEntry, error)
}

// Registry holds all available decoders and provides auto-detection.
type Registry struct {
	decoders []Decoder
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a registry with the built-in formats. YAML comes last
// because it accepts almost anything.
func NewRegistry() *Registry {
	return &Registry{
		decoders: []Decoder{
			NewJSONDecoder(),
			NewMsgpackDecoder(),
			NewCSVDecoder(),
			NewYAMLDecoder(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a new decoder to the registry.
func (r *Registry) Register(d Decoder) {
	r.decoders = append(r.decoders, d)
}

// FindDecoder selects a decoder by extension first, then by content.
func (r *Registry) FindDecoder(name string, data []byte) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		for _, d := range r.decoders {
			for _, e := range d.Extensions() {
				if e == ext {
					return d, nil
				}
			}
		}
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	for _, d := range r.decoders {
		if d.Sniff(head) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no suitable decoder found for %s", name)
}

// GetDecoderByName returns a decoder by its name.
func (r *Registry) GetDecoderByName(name string) (Decoder, error) {
	name = strings.ToLower(name)
	for _, d := range r.decoders {
		if strings.ToLower(d.Name()) == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("decoder not found: %s", name)
}

func firstNonSpace(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
