// Package parser loads authored limit specifications.
//
// A limit file is a flat list of LimitEntry records in YAML, JSON, CSV or
// MessagePack form. Loading is all-or-nothing: any malformed record or an
// empty list aborts the import before the live session is touched.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/limit-importer/backend/internal/models"
)

// FileErrorKind classifies a limit file failure.
type FileErrorKind string

const (
	FileMissing   FileErrorKind = "missing"
	FileMalformed FileErrorKind = "malformed"
	FileEmpty     FileErrorKind = "empty"
)

// FileError aborts an import before indexing.
type FileError struct {
	Kind FileErrorKind
	Name string
	Err  error
}

func (e *FileError) Error() string {
	switch e.Kind {
	case FileEmpty:
		return fmt.Sprintf("limit file %s contains no limit entries", e.Name)
	case FileMissing:
		return fmt.Sprintf("limit file %s not found", e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("limit file %s is malformed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("limit file %s is malformed", e.Name)
}

func (e *FileError) Unwrap() error { return e.Err }

// IsFileError reports whether err is a FileError of the given kind.
func IsFileError(err error, kind FileErrorKind) bool {
	var fe *FileError
	return errors.As(err, &fe) && fe.Kind == kind
}

// LoadLimits reads and decodes a limit file from disk.
func LoadLimits(filePath string) ([]models.LimitEntry, error) {
	return globalRegistry.Load(filePath, filepath.Base(filePath))
}

// Load reads the file at filePath and decodes it. name is used for format
// detection and error messages, so a stored file can keep its upload name.
func (r *Registry) Load(filePath, name string) ([]models.LimitEntry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileError{Kind: FileMissing, Name: name, Err: err}
		}
		return nil, &FileError{Kind: FileMalformed, Name: name, Err: err}
	}
	defer file.Close()

	return r.Decode(name, file)
}

// DecodeLimits decodes a plaintext limit payload. name is used for format
// detection and error messages only.
func DecodeLimits(name string, r io.Reader) ([]models.LimitEntry, error) {
	return globalRegistry.Decode(name, r)
}

// Decode picks a decoder for the payload and validates the decoded list.
func (r *Registry) Decode(name string, rd io.Reader) ([]models.LimitEntry, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, &FileError{Kind: FileMalformed, Name: name, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &FileError{Kind: FileEmpty, Name: name}
	}

	d, err := r.FindDecoder(name, data)
	if err != nil {
		return nil, &FileError{Kind: FileMalformed, Name: name, Err: err}
	}

	entries, err := d.Decode(data)
	if err != nil {
		return nil, &FileError{Kind: FileMalformed, Name: name, Err: fmt.Errorf("%s: %w", d.Name(), err)}
	}
	if len(entries) == 0 {
		return nil, &FileError{Kind: FileEmpty, Name: name}
	}

	for i := range entries {
		if err := normalizeEntry(&entries[i]); err != nil {
			return nil, &FileError{Kind: FileMalformed, Name: name, Err: fmt.Errorf("record %d: %w", i+1, err)}
		}
		entries[i].ID = strconv.Itoa(i)
	}
	return entries, nil
}

func normalizeEntry(e *models.LimitEntry) error {
	if strings.TrimSpace(e.SignalPathName) == "" {
		return errors.New("signalPathName is required")
	}
	if strings.TrimSpace(e.MeasurementName) == "" {
		return errors.New("measurementName is required")
	}
	if strings.TrimSpace(e.ResultName) == "" {
		return errors.New("resultName is required")
	}
	vt, err := models.ParseResultValueType(string(e.ResultValueType))
	if err != nil {
		return err
	}
	e.ResultValueType = vt
	return nil
}
