package di

import (
	"fmt"

	"github.com/aristath/marketsnap/internal/config"
	"github.com/aristath/marketsnap/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens and migrates cache.db when the price cache is enabled
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	if !cfg.Cache.Enabled {
		log.Info().Msg("Price cache disabled")
		return container, nil
	}

	// cache.db - Ephemeral market data (price history, company metadata)
	cacheDB, err := database.New(database.Config{
		Path:    cfg.CachePath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	if err := cacheDB.Migrate(); err != nil {
		cacheDB.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}
	container.CacheDB = cacheDB

	log.Info().Str("path", cacheDB.Path()).Msg("Cache database initialized")
	return container, nil
}
