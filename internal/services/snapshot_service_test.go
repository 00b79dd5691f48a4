package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/internal/reliability"
	"github.com/aristath/marketsnap/internal/storage"
	testingpkg "github.com/aristath/marketsnap/internal/testing"
)

var asOf = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

type fakePublisher struct {
	publishErr error
	rotateErr  error
	published  int
	rotatedFor []int
}

func (p *fakePublisher) Publish(context.Context) (*reliability.PublishResult, error) {
	if p.publishErr != nil {
		return nil, p.publishErr
	}
	p.published++
	return &reliability.PublishResult{Uploaded: 3}, nil
}

func (p *fakePublisher) RotateSnapshots(_ context.Context, days int) (int, error) {
	p.rotatedFor = append(p.rotatedFor, days)
	return 0, p.rotateErr
}

func setup(t *testing.T) (*SnapshotService, *storage.Store) {
	t.Helper()
	mock := testingpkg.NewMockProvider()
	for _, symbol := range []string{"AAPL", "MSFT"} {
		mock.SetHistory(symbol, testingpkg.NewBarFixtures(asOf, testingpkg.LinearCloses(30, 100)))
	}
	for symbol, info := range testingpkg.NewCompanyFixtures() {
		mock.SetCompany(symbol, info)
	}

	store := storage.NewStore(t.TempDir(), zerolog.Nop())
	return NewSnapshotService(mock, store, 2, zerolog.Nop()), store
}

func window() domain.Window {
	return domain.Window{
		LookbackStart: asOf.AddDate(0, 0, -60),
		WindowStart:   asOf.AddDate(0, 0, -60),
		AsOf:          asOf,
	}
}

func TestAnalyze_SavesRecordsAndBatchReport(t *testing.T) {
	svc, store := setup(t)

	batch, err := svc.Analyze(context.Background(), []string{"AAPL", "ZZZZ", "MSFT"}, window())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, batch.Succeeded)
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, "ZZZZ", batch.Failed[0].Symbol)

	saved, err := store.LoadBatchReport()
	require.NoError(t, err)
	assert.Equal(t, batch.RunID, saved.RunID)

	symbols, err := store.ListSymbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestAnalyze_NoSymbols(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Analyze(context.Background(), nil, window())
	assert.ErrorIs(t, err, domain.ErrNoSymbols)
}

func TestSummarize(t *testing.T) {
	svc, store := setup(t)

	_, _, err := svc.Summarize()
	assert.ErrorIs(t, err, domain.ErrNoRecords)

	_, err = svc.Analyze(context.Background(), []string{"AAPL", "MSFT"}, window())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.DataDir(), "stocks", "BAD.json"), []byte(`{"symbol":"BAD"}`), 0644))

	summary, invalid, err := svc.Summarize()
	require.NoError(t, err)
	assert.Len(t, summary.Stocks, 2)
	require.Len(t, invalid, 1)
	assert.Equal(t, "BAD.json", invalid[0].File)

	saved, err := store.LoadSummary()
	require.NoError(t, err)
	assert.Equal(t, summary.MarketOverview, saved.MarketOverview)
}

func TestPublish(t *testing.T) {
	svc, _ := setup(t)
	assert.False(t, svc.CanPublish())

	_, err := svc.Publish(context.Background())
	assert.ErrorIs(t, err, ErrPublishDisabled)

	pub := &fakePublisher{rotateErr: errors.New("list failed")}
	svc.SetPublisher(pub, 30)
	assert.True(t, svc.CanPublish())

	result, err := svc.Publish(context.Background())
	require.NoError(t, err, "rotation failures do not fail the publish")
	assert.Equal(t, 3, result.Uploaded)
	assert.Equal(t, []int{30}, pub.rotatedFor)

	pub.publishErr = errors.New("denied")
	_, err = svc.Publish(context.Background())
	assert.ErrorContains(t, err, "denied")
}
