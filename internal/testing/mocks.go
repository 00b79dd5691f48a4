package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aristath/marketsnap/internal/domain"
)

// MockProvider is an in-memory market data provider for testing
type MockProvider struct {
	mu           sync.RWMutex
	history      map[string][]domain.PriceBar
	companies    map[string]*domain.CompanyInfo
	err          error
	historyCalls int
	companyCalls int
}

// NewMockProvider creates a new mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		history:   make(map[string][]domain.PriceBar),
		companies: make(map[string]*domain.CompanyInfo),
	}
}

// SetHistory sets the sessions returned for symbol
func (m *MockProvider) SetHistory(symbol string, bars []domain.PriceBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[symbol] = bars
}

// SetCompany sets the metadata returned for symbol
func (m *MockProvider) SetCompany(symbol string, info *domain.CompanyInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[symbol] = info
}

// SetError sets the error returned by every call
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// History returns the stored sessions within [start, end]
func (m *MockProvider) History(_ context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyCalls++
	if m.err != nil {
		return nil, m.err
	}

	out := []domain.PriceBar{}
	for _, bar := range m.history[symbol] {
		if bar.Date.Before(domain.Day(start)) || bar.Date.After(domain.Day(end)) {
			continue
		}
		out = append(out, bar)
	}
	return out, nil
}

// Company returns the stored metadata for symbol
func (m *MockProvider) Company(_ context.Context, symbol string) (*domain.CompanyInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companyCalls++
	if m.err != nil {
		return nil, m.err
	}
	info, ok := m.companies[symbol]
	if !ok {
		return nil, errors.New("company not found")
	}
	copied := *info
	return &copied, nil
}

// HistoryCalls returns how many times History was called
func (m *MockProvider) HistoryCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.historyCalls
}

// CompanyCalls returns how many times Company was called
func (m *MockProvider) CompanyCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.companyCalls
}
