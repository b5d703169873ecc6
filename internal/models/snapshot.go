package models

import "time"

// SnapshotVersion is the current persistence envelope version.
const SnapshotVersion = 1

// Snapshot is the versioned envelope holding everything the daemon
// persists. The same shape backs the snapshot file, the sqlite rows and
// the user-facing export, so an exported file can always be imported
// back. Files written before the envelope existed were a bare card
// array; loading migrates those transparently.
type Snapshot struct {
	Version    int                 `json:"version"`
	ExportedAt time.Time           `json:"exported_at"`
	Cards      []*Card             `json:"cards"`
	Packs      []*Pack             `json:"packs"`
	Days       []DailyReviewRecord `json:"daily_records"`
	Streak     StreakHistory       `json:"streak"`
}
