package review

import (
	"os"

	json "github.com/goccy/go-json"

	"srd/internal/models"
	"srd/internal/providers"
	"srd/internal/review/interfaces"
	"srd/internal/structures"
)

// FileManager persists the service snapshot as one zstd-compressed JSON
// file, written atomically via a tmp file and rename.
type FileManager struct {
	service    interfaces.SnapshotServiceInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	path       string
}

func NewFileManager(conf *structures.Config, compressor interfaces.CompressorInterface, service interfaces.SnapshotServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
		logger:     logger,
		path:       conf.Persistence.FilePath,
	}
}

func (f *FileManager) Persist() error {
	return f.SaveToFile(f.path)
}

func (f *FileManager) Restore() error {
	return f.LoadFromFile(f.path)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

func (f *FileManager) SaveToFile(fileName string) error {
	snapshot := f.service.GetSnapshot()

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// LoadFromFile hydrates the service from a snapshot file. A missing
// file is a fresh start, not an error. Files from before the versioned
// envelope held a bare card array and are migrated in place on the next
// save.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	// Try the versioned envelope first
	var snapshot models.Snapshot
	if err := json.Unmarshal(decompressedData, &snapshot); err == nil && snapshot.Version >= 1 {
		return f.service.PutSnapshot(&snapshot)
	}

	// Fall back to the pre-envelope format: a bare card array
	f.logger.Warnf(providers.TypeApp, "Inconsistent snapshot found, try to migrate from old data format")
	var cards []*models.Card
	if err := json.Unmarshal(decompressedData, &cards); err != nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		return err
	}
	f.logger.Warnf(providers.TypeApp, "Migration from bare card list successful")
	return f.service.PutSnapshot(&models.Snapshot{
		Version: models.SnapshotVersion,
		Cards:   cards,
	})
}
