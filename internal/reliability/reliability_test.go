package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/marketsnap/internal/testing"
)

type storedObject struct {
	data        []byte
	contentType string
}

type memoryBucket struct {
	mu        sync.Mutex
	objects   map[string]storedObject
	uploadErr error
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: make(map[string]storedObject)}
}

func (b *memoryBucket) Upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = storedObject{data: data, contentType: contentType}
	return nil
}

func (b *memoryBucket) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []ObjectInfo
	for key, obj := range b.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(obj.data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *memoryBucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memoryBucket) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type dirSource struct {
	dir   string
	paths []string
}

func (s dirSource) DataDir() string              { return s.dir }
func (s dirSource) Artifacts() ([]string, error) { return s.paths, nil }

func newDirSource(t *testing.T, files map[string]string) dirSource {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return dirSource{dir: dir, paths: paths}
}

var publishTime = time.Date(2026, 10, 16, 22, 30, 5, 0, time.UTC)

func newService(bucket ObjectStore, source ArtifactSource) *PublishService {
	svc := NewPublishService(bucket, source, "/marketsnap/", zerolog.Nop())
	svc.now = func() time.Time { return publishTime }
	return svc
}

func TestPublish_UploadsLatestAndSnapshot(t *testing.T) {
	bucket := newMemoryBucket()
	source := newDirSource(t, map[string]string{
		"summary.json":     `{"stocks":[]}`,
		"stocks/AAPL.json": `{"symbol":"AAPL"}`,
	})

	result, err := newService(bucket, source).Publish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, int64(len(`{"stocks":[]}`)+len(`{"symbol":"AAPL"}`)), result.Bytes)
	assert.Equal(t, "marketsnap/snapshots/marketsnap-snapshot-2026-10-16-223005.tar.gz", result.SnapshotKey)
	assert.Equal(t, []string{
		"marketsnap/latest/stocks/AAPL.json",
		"marketsnap/latest/summary.json",
		result.SnapshotKey,
	}, bucket.keys())

	latest := bucket.objects["marketsnap/latest/stocks/AAPL.json"]
	assert.Equal(t, "application/json", latest.contentType)
	assert.Equal(t, `{"symbol":"AAPL"}`, string(latest.data))

	snapshot := bucket.objects[result.SnapshotKey]
	assert.Equal(t, "application/gzip", snapshot.contentType)

	entries := readArchive(t, snapshot.data)
	require.Contains(t, entries, manifestName)
	assert.Equal(t, `{"symbol":"AAPL"}`, entries["stocks/AAPL.json"])
	assert.Equal(t, `{"stocks":[]}`, entries["summary.json"])

	var manifest SnapshotManifest
	require.NoError(t, json.Unmarshal([]byte(entries[manifestName]), &manifest))
	require.Len(t, manifest.Artifacts, 2)
	assert.Equal(t, "stocks/AAPL.json", manifest.Artifacts[0].Path)
	assert.Equal(t, checksum([]byte(`{"symbol":"AAPL"}`)), manifest.Artifacts[0].Checksum)
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := make(map[string]string)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[header.Name] = string(content)
	}
	return entries
}

func TestPublish_NothingToPublish(t *testing.T) {
	_, err := newService(newMemoryBucket(), dirSource{dir: t.TempDir()}).Publish(context.Background())
	assert.ErrorIs(t, err, ErrNothingToPublish)
}

func TestPublish_UploadFailure(t *testing.T) {
	bucket := newMemoryBucket()
	bucket.uploadErr = errors.New("denied")
	source := newDirSource(t, map[string]string{"summary.json": `{}`})

	_, err := newService(bucket, source).Publish(context.Background())
	assert.ErrorContains(t, err, "denied")
}

func TestRotateSnapshots(t *testing.T) {
	bucket := newMemoryBucket()
	svc := newService(bucket, dirSource{dir: t.TempDir()})
	ctx := context.Background()

	ages := []int{0, 1, 40, 41, 42, 5}
	for _, days := range ages {
		key := svc.snapshotsPrefix() + snapshotPrefix + publishTime.AddDate(0, 0, -days).Format(snapshotTimestamp) + snapshotSuffix
		require.NoError(t, bucket.Upload(ctx, key, bytes.NewReader([]byte("x")), 1, "application/gzip"))
	}
	require.NoError(t, bucket.Upload(ctx, svc.snapshotsPrefix()+"notes.txt", bytes.NewReader(nil), 0, "text/plain"))

	snapshots, err := svc.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 6)
	assert.True(t, snapshots[0].Timestamp.Equal(publishTime))
	assert.Equal(t, int64(24), snapshots[1].AgeHours)

	deleted, err := svc.RotateSnapshots(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	remaining, err := svc.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)

	deleted, err = svc.RotateSnapshots(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRotateSnapshots_KeepsMinimumRegardlessOfAge(t *testing.T) {
	bucket := newMemoryBucket()
	svc := newService(bucket, dirSource{dir: t.TempDir()})
	ctx := context.Background()

	for _, days := range []int{100, 200, 300} {
		key := svc.snapshotsPrefix() + snapshotPrefix + publishTime.AddDate(0, 0, -days).Format(snapshotTimestamp) + snapshotSuffix
		require.NoError(t, bucket.Upload(ctx, key, bytes.NewReader(nil), 0, "application/gzip"))
	}

	deleted, err := svc.RotateSnapshots(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Len(t, bucket.keys(), 3)
}

func TestNewR2Client_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewR2Client(context.Background(), R2Config{Bucket: "b"}, zerolog.Nop())
	assert.Error(t, err)

	client, err := NewR2Client(context.Background(), R2Config{
		Endpoint:        "https://account.r2.cloudflarestorage.com",
		Bucket:          "snapshots",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "snapshots", client.Bucket())
}

type countingPruner struct {
	calls int
	err   error
}

func (p *countingPruner) Prune(context.Context) (int64, error) {
	p.calls++
	return 2, p.err
}

func TestCacheMaintenanceJob(t *testing.T) {
	db := testingpkg.NewTestDB(t, "cache")
	pruner := &countingPruner{}
	job := NewCacheMaintenanceJob(pruner, db, t.TempDir(), zerolog.Nop())
	assert.Equal(t, "cache_maintenance", job.Name())

	job.diskUsage = func(string) (uint64, error) { return 20 * 1024 * 1024 * 1024, nil }
	require.NoError(t, job.Run())
	assert.Equal(t, 1, pruner.calls)

	pruner.err = errors.New("locked")
	assert.NoError(t, job.Run(), "prune failures are logged, not fatal")

	job.diskUsage = func(string) (uint64, error) { return 100 * 1024 * 1024, nil }
	assert.ErrorContains(t, job.Run(), "CRITICAL")

	job.diskUsage = func(string) (uint64, error) { return 0, errors.New("no such fs") }
	assert.Error(t, job.Run())
}
