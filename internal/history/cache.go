// Package history caches provider responses in SQLite so repeated runs over
// the same dates do not refetch them.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/marketsnap/internal/analysis"
	"github.com/aristath/marketsnap/internal/database"
	"github.com/aristath/marketsnap/internal/domain"
)

// cachedBar is the msgpack form of a session.
type cachedBar struct {
	Date   int64   `msgpack:"d"`
	Open   float64 `msgpack:"o"`
	High   float64 `msgpack:"h"`
	Low    float64 `msgpack:"l"`
	Close  float64 `msgpack:"c"`
	Volume int64   `msgpack:"v"`
}

// CachedProvider wraps a Provider with a TTL cache. Cache faults are logged
// and fall through to the wrapped provider.
type CachedProvider struct {
	next analysis.Provider
	db   *database.DB
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger
}

// NewCachedProvider creates a cache in front of next.
func NewCachedProvider(next analysis.Provider, db *database.DB, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		next: next,
		db:   db,
		ttl:  ttl,
		now:  time.Now,
		log:  log.With().Str("component", "history_cache").Logger(),
	}
}

// History serves [start, end] from the cache when a fresh entry exists for
// exactly that range. Empty responses are never cached.
func (p *CachedProvider) History(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	startKey, endKey := start.Format(domain.DateLayout), end.Format(domain.DateLayout)

	bars, err := p.cachedHistory(ctx, symbol, startKey, endKey)
	if err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Price cache read failed")
	} else if bars != nil {
		p.log.Debug().Str("symbol", symbol).Int("sessions", len(bars)).Msg("Price cache hit")
		return bars, nil
	}

	bars, err = p.next.History(ctx, symbol, start, end)
	if err != nil || len(bars) == 0 {
		return bars, err
	}

	if err := p.storeHistory(ctx, symbol, startKey, endKey, bars); err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Price cache write failed")
	}
	return bars, nil
}

func (p *CachedProvider) cachedHistory(ctx context.Context, symbol, startKey, endKey string) ([]domain.PriceBar, error) {
	var blob []byte
	var fetchedAt int64
	err := p.db.QueryRowContext(ctx,
		`SELECT bars, fetched_at FROM price_cache WHERE symbol = ? AND start_date = ? AND end_date = ?`,
		symbol, startKey, endKey,
	).Scan(&blob, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price cache: %w", err)
	}
	if !p.fresh(fetchedAt) {
		return nil, nil
	}

	var rows []cachedBar
	if err := msgpack.Unmarshal(blob, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode cached bars: %w", err)
	}

	bars := make([]domain.PriceBar, len(rows))
	for i, r := range rows {
		bars[i] = domain.PriceBar{
			Date:   time.Unix(r.Date, 0).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return bars, nil
}

func (p *CachedProvider) storeHistory(ctx context.Context, symbol, startKey, endKey string, bars []domain.PriceBar) error {
	rows := make([]cachedBar, len(bars))
	for i, b := range bars {
		rows[i] = cachedBar{
			Date:   domain.Day(b.Date).Unix(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}

	blob, err := msgpack.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode bars: %w", err)
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO price_cache (symbol, start_date, end_date, bars, fetched_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(symbol, start_date, end_date) DO UPDATE SET bars = excluded.bars, fetched_at = excluded.fetched_at`,
		symbol, startKey, endKey, blob, p.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store bars: %w", err)
	}
	return nil
}

// Company serves metadata from the cache when fresh.
func (p *CachedProvider) Company(ctx context.Context, symbol string) (*domain.CompanyInfo, error) {
	info, err := p.cachedCompany(ctx, symbol)
	if err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Company cache read failed")
	} else if info != nil {
		return info, nil
	}

	info, err = p.next.Company(ctx, symbol)
	if err != nil || info == nil {
		return info, err
	}

	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO company_cache (symbol, name, sector, market_cap, fetched_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET name = excluded.name, sector = excluded.sector,
		 market_cap = excluded.market_cap, fetched_at = excluded.fetched_at`,
		symbol, info.Name, info.Sector, info.MarketCap, p.now().Unix(),
	); err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Company cache write failed")
	}
	return info, nil
}

func (p *CachedProvider) cachedCompany(ctx context.Context, symbol string) (*domain.CompanyInfo, error) {
	var info domain.CompanyInfo
	var marketCap null.Int
	var fetchedAt int64
	err := p.db.QueryRowContext(ctx,
		`SELECT name, sector, market_cap, fetched_at FROM company_cache WHERE symbol = ?`, symbol,
	).Scan(&info.Name, &info.Sector, &marketCap, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company cache: %w", err)
	}
	if !p.fresh(fetchedAt) {
		return nil, nil
	}
	info.MarketCap = marketCap
	return &info, nil
}

func (p *CachedProvider) fresh(fetchedAt int64) bool {
	return p.now().Sub(time.Unix(fetchedAt, 0)) < p.ttl
}

// Prune deletes entries older than the TTL and returns how many were removed.
func (p *CachedProvider) Prune(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.ttl).Unix()
	var removed int64

	err := database.WithTransaction(p.db.Conn(), func(tx *sql.Tx) error {
		for _, table := range []string{"price_cache", "company_cache"} {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE fetched_at < ?", cutoff)
			if err != nil {
				return fmt.Errorf("failed to prune %s: %w", table, err)
			}
			n, _ := res.RowsAffected()
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	p.log.Info().Int64("removed", removed).Msg("Cache pruned")
	return removed, nil
}
