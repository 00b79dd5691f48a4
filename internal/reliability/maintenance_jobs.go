package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/marketsnap/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// Disk thresholds for the data directory's filesystem
const (
	criticalFreeBytes = 500 * 1024 * 1024
	warnFreeBytes     = 5 * 1024 * 1024 * 1024
)

// Pruner drops expired cache entries
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// DiskUsageFunc reports free bytes for the filesystem holding path
type DiskUsageFunc func(path string) (uint64, error)

func freeBytes(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// CacheMaintenanceJob prunes the price cache, compacts its database and
// checks free disk space under the data directory
type CacheMaintenanceJob struct {
	pruner    Pruner
	db        *database.DB
	dataDir   string
	diskUsage DiskUsageFunc
	timeout   time.Duration
	log       zerolog.Logger
}

// NewCacheMaintenanceJob creates a new cache maintenance job
func NewCacheMaintenanceJob(pruner Pruner, db *database.DB, dataDir string, log zerolog.Logger) *CacheMaintenanceJob {
	return &CacheMaintenanceJob{
		pruner:    pruner,
		db:        db,
		dataDir:   dataDir,
		diskUsage: freeBytes,
		timeout:   5 * time.Minute,
		log:       log.With().Str("job", "cache_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *CacheMaintenanceJob) Name() string {
	return "cache_maintenance"
}

// Run executes the maintenance steps in order; only a critical disk
// shortage fails the job
func (j *CacheMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting cache maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.QuickCheck(ctx); err != nil {
		return fmt.Errorf("cache database unreachable: %w", err)
	}

	if _, err := j.pruner.Prune(ctx); err != nil {
		j.log.Error().Err(err).Msg("Cache prune failed")
	}

	if _, err := j.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	j.vacuum(ctx)

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Cache maintenance completed")
	return nil
}

func (j *CacheMaintenanceJob) vacuum(ctx context.Context) {
	before, err := j.db.GetStats()
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to read cache stats")
		return
	}

	if _, err := j.db.ExecContext(ctx, "VACUUM"); err != nil {
		j.log.Error().Err(err).Msg("VACUUM failed")
		return
	}

	after, err := j.db.GetStats()
	if err != nil {
		return
	}
	j.log.Info().
		Float64("size_before_mb", float64(before.PageCount*before.PageSize)/1024/1024).
		Float64("size_after_mb", float64(after.PageCount*after.PageSize)/1024/1024).
		Msg("VACUUM completed")
}

// checkDiskSpace fails below the critical threshold and warns below the soft one
func (j *CacheMaintenanceJob) checkDiskSpace() error {
	free, err := j.diskUsage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if free < criticalFreeBytes {
		j.log.Error().Float64("available_gb", availableGB).Msg("CRITICAL: insufficient disk space for artifacts")
		return fmt.Errorf("CRITICAL: only %.2f GB free under %s", availableGB, j.dataDir)
	}
	if free < warnFreeBytes {
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	}
	return nil
}
