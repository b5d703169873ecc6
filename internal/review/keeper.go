package review

import (
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"srd/internal/providers"
	"srd/internal/review/interfaces"
	"srd/internal/structures"
)

const (
	defaultSaveInterval  = 30 * time.Second
	defaultSweepInterval = 60 * time.Second
)

// Keeper runs the daemon's background jobs: it writes the snapshot out
// whenever the state is dirty and sweeps expired undo entries. It also
// fronts the storage driver for the restore-on-boot and
// persist-on-shutdown calls.
type Keeper struct {
	config  *structures.Config
	logger  providers.Logger
	service interfaces.SnapshotServiceInterface
	storage interfaces.StorageInterface
	metrics providers.MetricsProviderInterface
	cron    *gron.Cron
	opsMu   sync.Mutex
}

func (k *Keeper) Init() {
	k.cron = gron.New()

	saveInterval := k.config.Persistence.SaveInterval
	if saveInterval < time.Second {
		saveInterval = defaultSaveInterval
	}
	sweepInterval := k.config.Review.SweepInterval
	if sweepInterval < time.Second {
		sweepInterval = defaultSweepInterval
	}

	k.cron.AddFunc(gron.Every(saveInterval), k.runPersist)
	k.cron.AddFunc(gron.Every(sweepInterval), k.runSweep)
	k.cron.Start()
}

// runPersist saves the snapshot when something changed since the last
// save. The dirty flag is cleared up front so mutations racing with the
// write re-arm the next tick instead of getting lost.
func (k *Keeper) runPersist() {
	k.opsMu.Lock()
	defer k.opsMu.Unlock()

	if !k.service.Dirty() {
		k.logger.Debugf(providers.TypeApp, "State unchanged, skipping persist")
		return
	}
	k.service.ClearDirty()

	start := time.Now()
	if err := k.storage.Persist(); err != nil {
		k.service.MarkDirty()
		k.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return
	}
	k.metrics.ObservePersistenceDuration(time.Since(start))
	k.logger.Infof(providers.TypeApp, "Persisted review data")
}

func (k *Keeper) runSweep() {
	k.opsMu.Lock()
	defer k.opsMu.Unlock()

	if removed := k.service.SweepUndo(); removed > 0 {
		k.logger.Debugf(providers.TypeApp, "Swept %d expired undo entries", removed)
	}
}

func (k *Keeper) Stop() {
	if k.cron != nil {
		k.cron.Stop()
	}
}

func (k *Keeper) Restore() error {
	return k.storage.Restore()
}

// Persist writes the snapshot unconditionally. Shutdown calls this so
// the final state always lands on disk, dirty or not.
func (k *Keeper) Persist() error {
	k.opsMu.Lock()
	defer k.opsMu.Unlock()

	k.logger.Infof(providers.TypeApp, "Persisting review data...")
	start := time.Now()
	if err := k.storage.Persist(); err != nil {
		k.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	k.service.ClearDirty()
	k.metrics.ObservePersistenceDuration(time.Since(start))
	return nil
}

func NewKeeper(config *structures.Config, logger providers.Logger, service interfaces.SnapshotServiceInterface, storage interfaces.StorageInterface, metrics providers.MetricsProviderInterface) interfaces.KeeperInterface {
	return &Keeper{
		config:  config,
		logger:  logger,
		service: service,
		storage: storage,
		metrics: metrics,
	}
}
