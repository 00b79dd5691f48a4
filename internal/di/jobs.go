package di

import (
	"fmt"

	"github.com/aristath/marketsnap/internal/config"
	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/internal/reliability"
	"github.com/aristath/marketsnap/internal/scheduler"
	"github.com/aristath/marketsnap/internal/symbols"
	"github.com/rs/zerolog"
)

// CacheMaintenanceSchedule runs the cache maintenance job daily at 4 AM
const CacheMaintenanceSchedule = "0 0 4 * * *"

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	Snapshot         *scheduler.SnapshotJob
	CacheMaintenance *reliability.CacheMaintenanceJob // nil when the cache is disabled
}

// RegisterJobs registers the snapshot job on cfg.Schedule and, with the
// cache enabled, the cache maintenance job
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.SnapshotService == nil {
		return nil, fmt.Errorf("container is not initialized")
	}

	instances := &JobInstances{}

	// The symbols file is re-read on every run
	symbolSource := func() ([]string, error) {
		groups, err := symbols.Load(cfg.SymbolsFile)
		if err != nil {
			return nil, err
		}
		all := groups.All()
		if len(all) == 0 {
			return nil, domain.ErrNoSymbols
		}
		return all, nil
	}

	publish := cfg.PublishOnRun && container.SnapshotService.CanPublish()
	instances.Snapshot = scheduler.NewSnapshotJob(container.SnapshotService, symbolSource, publish, log)
	if err := sched.AddJob(cfg.Schedule, instances.Snapshot); err != nil {
		return nil, err
	}

	if container.CachedProvider != nil {
		instances.CacheMaintenance = reliability.NewCacheMaintenanceJob(
			container.CachedProvider,
			container.CacheDB,
			cfg.DataDir,
			log,
		)
		if err := sched.AddJob(CacheMaintenanceSchedule, instances.CacheMaintenance); err != nil {
			return nil, err
		}
	}

	return instances, nil
}
