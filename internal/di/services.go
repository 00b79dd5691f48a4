package di

import (
	"context"
	"fmt"

	"github.com/aristath/marketsnap/internal/clients/yahoo"
	"github.com/aristath/marketsnap/internal/config"
	"github.com/aristath/marketsnap/internal/history"
	"github.com/aristath/marketsnap/internal/reliability"
	"github.com/aristath/marketsnap/internal/services"
	"github.com/aristath/marketsnap/internal/storage"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients, the artifact store and the snapshot service
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.Yahoo = yahoo.NewClient(yahoo.ClientOptions{
		RequestsPerSec:  cfg.Yahoo.RequestsPerSec,
		MaxRetryTimeout: cfg.Yahoo.MaxRetryTimeout,
	}, log)
	container.Provider = container.Yahoo

	if container.CacheDB != nil {
		container.CachedProvider = history.NewCachedProvider(container.Yahoo, container.CacheDB, cfg.Cache.TTL, log)
		container.Provider = container.CachedProvider
	}

	container.Store = storage.NewStore(cfg.DataDir, log)
	container.SnapshotService = services.NewSnapshotService(container.Provider, container.Store, cfg.Workers, log)

	// Only initialize publishing if a bucket is configured
	if cfg.Publish.Enabled() {
		r2Client, err := reliability.NewR2Client(ctx, reliability.R2Config{
			Endpoint:        cfg.Publish.Endpoint,
			Bucket:          cfg.Publish.Bucket,
			AccessKeyID:     cfg.Publish.AccessKeyID,
			SecretAccessKey: cfg.Publish.SecretAccessKey,
			Region:          cfg.Publish.Region,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize r2 client: %w", err)
		}
		container.R2Client = r2Client
		container.PublishService = reliability.NewPublishService(r2Client, container.Store, cfg.Publish.Prefix, log)
		container.SnapshotService.SetPublisher(container.PublishService, cfg.Publish.RetentionDays)
		log.Info().Str("bucket", r2Client.Bucket()).Msg("Artifact publishing initialized")
	}

	return nil
}
