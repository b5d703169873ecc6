package interfaces

// StorageInterface is a snapshot persistence driver. Persist writes the
// service's current snapshot out, Restore hydrates the service from
// whatever was persisted before. Restore on a never-persisted target is
// not an error.
type StorageInterface interface {
	Persist() error
	Restore() error
	Close()
}
