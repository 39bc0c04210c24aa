package models

import "time"

// ImportStatus represents the status of an import session.
type ImportStatus string

const (
	ImportStatusPending     ImportStatus = "pending"
	ImportStatusApplying    ImportStatus = "applying"
	ImportStatusReconciling ImportStatus = "reconciling" // finished with unpaired items
	ImportStatusComplete    ImportStatus = "complete"
	ImportStatusError       ImportStatus = "error"
)

// ImportSession represents one run of the limit importer.
type ImportSession struct {
	ID               string       `json:"id"`
	FileID           string       `json:"fileId,omitempty"`
	FileName         string       `json:"fileName,omitempty"`
	Status           ImportStatus `json:"status"`
	EntryCount       int          `json:"entryCount"`
	ResultCount      int          `json:"resultCount"`
	PairedCount      int          `json:"pairedCount"`
	StartedAt        time.Time    `json:"startedAt"`
	ProcessingTimeMs int64        `json:"processingTimeMs,omitempty"`
	Error            string       `json:"error,omitempty"`
}

// NewImportSession creates a new ImportSession in pending status.
func NewImportSession(id, fileID, fileName string) *ImportSession {
	return &ImportSession{
		ID:        id,
		FileID:    fileID,
		FileName:  fileName,
		Status:    ImportStatusPending,
		StartedAt: time.Now(),
	}
}
