package interfaces

import "srd/internal/models"

// SnapshotServiceInterface is the slice of the review service that the
// persistence side needs: snapshot in, snapshot out, the dirty flag
// that gates periodic saves, and the undo sweep hook.
type SnapshotServiceInterface interface {
	GetSnapshot() *models.Snapshot
	PutSnapshot(snap *models.Snapshot) error
	Dirty() bool
	MarkDirty()
	ClearDirty()
	SweepUndo() int
}
