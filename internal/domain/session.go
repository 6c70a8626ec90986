package domain

import (
	"errors"
	"time"
)

// ContentID is the content-addressed hash identifying a session's payload.
type ContentID string

type SessionStatus string

const (
	StatusLoading     SessionStatus = "loading"
	StatusDownloading SessionStatus = "downloading"
	StatusSeeding     SessionStatus = "seeding"
	StatusCompleted   SessionStatus = "completed"
	StatusPaused      SessionStatus = "paused"
	StatusStalled     SessionStatus = "stalled"
)

// ETAUnknown is the sentinel shown when no completion estimate exists.
const ETAUnknown = "Unknown"

// Session is one transfer unit as last reported by the remote engine.
type Session struct {
	ID              string        `json:"id"`
	ContentID       ContentID     `json:"contentId"`
	Name            string        `json:"name"`
	TotalSize       int64         `json:"totalSize"`
	SizeStr         string        `json:"sizeStr"`
	Progress        float64       `json:"progress"`
	Status          SessionStatus `json:"status"`
	IsPaused        bool          `json:"isPaused"`
	DownloadRate    int64         `json:"downloadRate"`
	UploadRate      int64         `json:"uploadRate"`
	DownloadRateStr string        `json:"downloadRateStr"`
	UploadRateStr   string        `json:"uploadRateStr"`
	PeerCount       int           `json:"peerCount"`
	SeedCount       int           `json:"seedCount"`
	ETA             string        `json:"eta"`
	Files           []FileEntry   `json:"files"`
	SatoshisEarned  uint64        `json:"satoshisEarned"`
	SatoshisSpent   uint64        `json:"satoshisSpent"`
	PricePerPiece   uint64        `json:"pricePerPiece,omitempty"`
	AddedAt         time.Time     `json:"addedAt"`
}

// FileEntry is owned by its parent Session and replaced wholesale on refresh.
type FileEntry struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	SizeStr  string  `json:"sizeStr"`
	Progress float64 `json:"progress"`
	Path     string  `json:"path"`
}

// Resumable reports whether a status toggle should issue a resume rather
// than a pause. The engine sources isPaused and status independently, so
// the canonical predicate considers both.
func (s Session) Resumable() bool {
	return s.IsPaused || s.Status == StatusPaused || s.Status == StatusStalled
}

// Normalized folds the legacy isPaused flag into the status enum: a session
// flagged paused but reported with an active status becomes StatusPaused.
// A stalled status wins over the flag so stalls stay visible.
func (s Session) Normalized() Session {
	if s.IsPaused && s.Status != StatusPaused && s.Status != StatusStalled {
		s.Status = StatusPaused
	}
	if s.ETA == "" {
		s.ETA = ETAUnknown
	}
	return s
}

// Validate checks domain invariants for Session.
func (s Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.TotalSize < 0 {
		return errors.New("totalSize must not be negative")
	}
	if s.Progress < 0 || s.Progress > 100 {
		return errors.New("progress must be within [0, 100]")
	}
	switch s.Status {
	case StatusLoading, StatusDownloading, StatusSeeding, StatusCompleted, StatusPaused, StatusStalled:
		// valid
	case "":
		return errors.New("status is required")
	default:
		return errors.New("invalid status: " + string(s.Status))
	}
	return nil
}
