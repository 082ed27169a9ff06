package model

import (
	"time"
)

// CostEntry is one append-only cost ledger record. Entries are
// aggregated per UTC day to enforce the spend ceiling.
type CostEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	UserID    string            `json:"user_id,omitempty"`
	Model     string            `json:"model"`
	CostUSD   float64           `json:"cost_usd"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
