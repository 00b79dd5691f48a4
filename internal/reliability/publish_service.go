// Package reliability publishes artifact snapshots off-host and keeps the
// local cache healthy.
package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	snapshotPrefix    = "marketsnap-snapshot-"
	snapshotSuffix    = ".tar.gz"
	snapshotTimestamp = "2006-01-02-150405"
	manifestName      = "snapshot-manifest.json"

	// Rotation never goes below this many snapshots
	minSnapshotsToKeep = 3
)

// ErrNothingToPublish is returned when the data directory holds no artifacts
var ErrNothingToPublish = errors.New("no artifacts to publish")

// ArtifactSource lists the artifacts to publish
type ArtifactSource interface {
	DataDir() string
	Artifacts() ([]string, error)
}

// SnapshotManifest is stored inside every snapshot archive
type SnapshotManifest struct {
	Timestamp time.Time          `json:"timestamp"`
	Artifacts []ArtifactMetadata `json:"artifacts"`
}

// ArtifactMetadata describes one file in a snapshot
type ArtifactMetadata struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// SnapshotInfo represents a snapshot archive stored in the bucket
type SnapshotInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// PublishResult summarizes one publish
type PublishResult struct {
	Uploaded    int    `json:"uploaded"`
	Bytes       int64  `json:"bytes"`
	SnapshotKey string `json:"snapshotKey"`
}

// PublishService uploads artifacts to an object store
type PublishService struct {
	store  ObjectStore
	source ArtifactSource
	prefix string
	now    func() time.Time
	log    zerolog.Logger
}

// NewPublishService creates a publish service writing under prefix
func NewPublishService(store ObjectStore, source ArtifactSource, prefix string, log zerolog.Logger) *PublishService {
	return &PublishService{
		store:  store,
		source: source,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
		log:    log.With().Str("service", "publish").Logger(),
	}
}

func (s *PublishService) latestKey(rel string) string {
	return path.Join(s.prefix, "latest", rel)
}

func (s *PublishService) snapshotsPrefix() string {
	return path.Join(s.prefix, "snapshots") + "/"
}

// Publish uploads every artifact to <prefix>/latest/ and a tar.gz snapshot
// of all of them to <prefix>/snapshots/
func (s *PublishService) Publish(ctx context.Context) (*PublishResult, error) {
	s.log.Info().Msg("Starting publish")
	startTime := s.now()

	paths, err := s.source.Artifacts()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	if len(paths) == 0 {
		return nil, ErrNothingToPublish
	}

	result := &PublishResult{}
	manifest := SnapshotManifest{
		Timestamp: startTime.UTC(),
		Artifacts: make([]ArtifactMetadata, 0, len(paths)),
	}

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(s.source.DataDir(), filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}

		if err := s.store.Upload(ctx, s.latestKey(rel), bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
			return nil, err
		}

		result.Uploaded++
		result.Bytes += int64(len(data))
		manifest.Artifacts = append(manifest.Artifacts, ArtifactMetadata{
			Path:      rel,
			SizeBytes: int64(len(data)),
			Checksum:  checksum(data),
		})
	}

	archive, err := s.createArchive(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot archive: %w", err)
	}

	key := s.snapshotsPrefix() + snapshotPrefix + startTime.Format(snapshotTimestamp) + snapshotSuffix
	if err := s.store.Upload(ctx, key, bytes.NewReader(archive), int64(len(archive)), "application/gzip"); err != nil {
		return nil, err
	}
	result.SnapshotKey = key

	s.log.Info().
		Int("uploaded", result.Uploaded).
		Int64("bytes", result.Bytes).
		Str("snapshot", key).
		Dur("duration_ms", s.now().Sub(startTime)).
		Msg("Publish completed")

	return result, nil
}

// ListSnapshots returns stored snapshots, newest first
func (s *PublishService) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	objects, err := s.store.List(ctx, s.snapshotsPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	now := s.now()
	snapshots := make([]SnapshotInfo, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
		timestamp, err := time.ParseInLocation(snapshotTimestamp, stamp, now.Location())
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from snapshot name")
			continue
		}

		snapshots = append(snapshots, SnapshotInfo{
			Key:       obj.Key,
			Timestamp: timestamp,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// RotateSnapshots deletes snapshots older than retentionDays, always keeping
// the newest few. A retention of 0 keeps everything.
func (s *PublishService) RotateSnapshots(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	snapshots, err := s.ListSnapshots(ctx)
	if err != nil {
		return 0, err
	}
	if len(snapshots) <= minSnapshotsToKeep {
		s.log.Debug().Int("count", len(snapshots)).Msg("Too few snapshots to rotate")
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, snap := range snapshots[minSnapshotsToKeep:] {
		if !snap.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, snap.Key); err != nil {
			s.log.Error().Err(err).Str("key", snap.Key).Msg("Failed to delete old snapshot")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(snapshots)-deleted).
		Msg("Snapshot rotation completed")
	return deleted, nil
}

// createArchive builds the tar.gz snapshot in memory: the manifest first,
// then every artifact under its relative path
func (s *PublishService) createArchive(manifest SnapshotManifest) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := addToArchive(tarWriter, manifestName, manifestData, manifest.Timestamp); err != nil {
		return nil, err
	}

	for _, artifact := range manifest.Artifacts {
		file, err := os.Open(filepath.Join(s.source.DataDir(), filepath.FromSlash(artifact.Path)))
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		if err := addToArchive(tarWriter, artifact.Path, data, manifest.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", artifact.Path, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addToArchive(tarWriter *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Size:    int64(len(data)),
		Mode:    0644,
		ModTime: modTime,
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	_, err := tarWriter.Write(data)
	return err
}

func checksum(data []byte) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256(data))
}
