package review

import (
	"fmt"

	"srd/internal/providers"
	"srd/internal/review/interfaces"
	"srd/internal/structures"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// NewSnapshotStorage picks the persistence driver named in the config.
// The file driver compresses one snapshot file; the sqlite driver
// rewrites a database. Both carry the identical snapshot envelope.
func NewSnapshotStorage(conf *structures.Config, compressor interfaces.CompressorInterface, service interfaces.SnapshotServiceInterface, logger providers.Logger) (interfaces.StorageInterface, error) {
	switch conf.Persistence.Driver {
	case DriverFile, "":
		return NewFileManager(conf, compressor, service, logger), nil
	case DriverSQLite:
		return NewSQLiteStore(conf, service, logger)
	default:
		return nil, fmt.Errorf("unknown persistence driver %q", conf.Persistence.Driver)
	}
}
