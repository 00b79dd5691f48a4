/**
 * Package di provides dependency injection wiring for marketsnap.
 *
 * The Container holds every long-lived dependency. Commands build one with
 * Wire, use what they need and Close it on exit.
 */
package di

import (
	"github.com/aristath/marketsnap/internal/analysis"
	"github.com/aristath/marketsnap/internal/clients/yahoo"
	"github.com/aristath/marketsnap/internal/database"
	"github.com/aristath/marketsnap/internal/history"
	"github.com/aristath/marketsnap/internal/reliability"
	"github.com/aristath/marketsnap/internal/services"
	"github.com/aristath/marketsnap/internal/storage"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	CacheDB *database.DB // nil when the price cache is disabled

	// Clients
	Yahoo    *yahoo.Client
	R2Client *reliability.R2Client // nil when publishing is not configured

	// Market data: the Yahoo client, wrapped by the SQLite cache when enabled
	Provider       analysis.Provider
	CachedProvider *history.CachedProvider // nil when the cache is disabled

	// Artifacts
	Store *storage.Store

	// Services
	PublishService  *reliability.PublishService // nil when publishing is not configured
	SnapshotService *services.SnapshotService
}

// Close releases the container's databases
func (c *Container) Close() error {
	if c.CacheDB != nil {
		return c.CacheDB.Close()
	}
	return nil
}
