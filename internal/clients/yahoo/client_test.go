package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/marketsnap/internal/domain"
)

const chartBody = `{"chart":{"result":[{
	"meta":{"symbol":"AAPL","gmtoffset":-18000},
	"timestamp":[1767364200,1767623400,1767709800,1767796200],
	"indicators":{"quote":[{
		"open":[100.0,101.0,null,103.0],
		"high":[102.0,103.0,104.0,105.0],
		"low":[99.0,100.0,101.0,102.0],
		"close":[101.5,102.5,103.5,104.5],
		"volume":[1000,null,3000,4000]
	}]}
}],"error":null}}`

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		BaseURL:         url,
		Timeout:         5 * time.Second,
		RequestsPerSec:  100,
		MaxRetryTimeout: 3 * time.Second,
	}, zerolog.Nop())
}

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestHistory_ParsesChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1767225600", r.URL.Query().Get("period1"))
		assert.Equal(t, "1767830400", r.URL.Query().Get("period2"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer server.Close()

	bars, err := newTestClient(server.URL).History(context.Background(), "AAPL", day("2026-01-01"), day("2026-01-07"))
	require.NoError(t, err)

	require.Len(t, bars, 3, "row with a null open is skipped")
	assert.Equal(t, "2026-01-02", bars[0].Date.Format(domain.DateLayout))
	assert.Equal(t, "2026-01-05", bars[1].Date.Format(domain.DateLayout))
	assert.Equal(t, "2026-01-07", bars[2].Date.Format(domain.DateLayout))
	assert.Equal(t, 101.5, bars[0].Close)
	assert.Equal(t, int64(1000), bars[0].Volume)
	assert.Equal(t, int64(0), bars[1].Volume, "null volume reads as zero")
}

func TestHistory_TrimsToRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody))
	}))
	defer server.Close()

	bars, err := newTestClient(server.URL).History(context.Background(), "AAPL", day("2026-01-03"), day("2026-01-05"))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "2026-01-05", bars[0].Date.Format(domain.DateLayout))
}

func TestHistory_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer server.Close()

	bars, err := newTestClient(server.URL).History(context.Background(), "ZZZZ", day("2026-01-01"), day("2026-01-07"))
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestHistory_NotFoundChartError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).History(context.Background(), "ZZZZ", day("2026-01-01"), day("2026-01-07"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHistory_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chartBody))
	}))
	defer server.Close()

	bars, err := newTestClient(server.URL).History(context.Background(), "AAPL", day("2026-01-01"), day("2026-01-07"))
	require.NoError(t, err)
	assert.Len(t, bars, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHistory_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).History(context.Background(), "AAPL", day("2026-01-01"), day("2026-01-07"))
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHistory_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).History(ctx, "AAPL", day("2026-01-01"), day("2026-01-07"))
	assert.Error(t, err)
}

func TestCompany_UsesLookup(t *testing.T) {
	client := NewClient(ClientOptions{
		RequestsPerSec: 100,
		Company: func(_ context.Context, symbol string) (*domain.CompanyInfo, error) {
			return &domain.CompanyInfo{Name: symbol + " Inc", Sector: "Technology", MarketCap: null.IntFrom(42)}, nil
		},
	}, zerolog.Nop())

	info, err := client.Company(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL Inc", info.Name)
	assert.Equal(t, int64(42), info.MarketCap.Int64)
}
