package yahoo

import (
	"context"
	"fmt"

	"github.com/guregu/null/v6"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/aristath/marketsnap/internal/domain"
)

// infoCompany reads name, sector and market cap from the quote summary.
func (c *Client) infoCompany(_ context.Context, symbol string) (*domain.CompanyInfo, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get info for %s: %w", symbol, err)
	}
	if info == nil {
		return nil, fmt.Errorf("no info for %s", symbol)
	}

	company := &domain.CompanyInfo{
		Name:   info.LongName,
		Sector: info.Sector,
	}
	if company.Name == "" {
		company.Name = info.ShortName
	}
	if info.MarketCap > 0 {
		company.MarketCap = null.IntFrom(int64(info.MarketCap))
	}
	return company, nil
}
