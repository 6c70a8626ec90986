package domain

import "time"

// FundSnapshot is the per-session satoshi tally recorded to the local fund
// ledger after a refresh. Observational only; the registry never reads it
// back into the authoritative view.
type FundSnapshot struct {
	ContentID      ContentID `json:"contentId"`
	Name           string    `json:"name"`
	SatoshisEarned uint64    `json:"satoshisEarned"`
	SatoshisSpent  uint64    `json:"satoshisSpent"`
	RecordedAt     time.Time `json:"recordedAt"`
}
