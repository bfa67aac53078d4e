// Package exports runs statement exports in the background and serves the
// resulting files.
package exports

import (
	"time"

	"github.com/greenledger/greenledger/internal/ledger"
)

// State is the lifecycle position of an export.
type State string

const (
	StateQueued  State = "queued"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Export is the status record kept in Redis.
type Export struct {
	ID          string        `json:"id"`
	PartyID     int64         `json:"partyId"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Format      ledger.Output `json:"format"`
	Opening     string        `json:"opening,omitempty"`
	State       State         `json:"status"`
	Error       string        `json:"error,omitempty"`
	Filename    string        `json:"filename,omitempty"`
	RequestedBy int64         `json:"requestedBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// File is the name of the export inside the export directory.
func (e Export) File() string {
	return e.ID + e.Format.Extension()
}

// CreateExportRequest is the body of an export request.
type CreateExportRequest struct {
	From    string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To      string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Format  string `json:"format" validate:"required,oneof=csv pdf"`
	Opening string `json:"opening" validate:"omitempty,oneof=carry snapshot"`
}

// ExportResponse is the wire shape of an export status.
type ExportResponse struct {
	ID          string    `json:"id"`
	Status      State     `json:"status"`
	PartyID     int64     `json:"partyId"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Format      string    `json:"format"`
	Error       string    `json:"error,omitempty"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewExportResponse maps an export onto its wire shape.
func NewExportResponse(e Export) ExportResponse {
	resp := ExportResponse{
		ID:        e.ID,
		Status:    e.State,
		PartyID:   e.PartyID,
		From:      e.From,
		To:        e.To,
		Format:    string(e.Format),
		Error:     e.Error,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.State == StateDone {
		resp.DownloadURL = "/api/exports/" + e.ID + "/download"
	}
	return resp
}
