// Package yahoo fetches daily price history and company metadata from Yahoo
// Finance.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/marketsnap/internal/domain"
)

// DefaultBaseURL is the Yahoo chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration

	// Company replaces the go-yfinance metadata lookup.
	Company CompanyFunc
}

// CompanyFunc looks up static company metadata for a symbol.
type CompanyFunc func(ctx context.Context, symbol string) (*domain.CompanyInfo, error)

// Client is a rate limited Yahoo Finance client
type Client struct {
	httpClient      *http.Client
	limiter         *rate.Limiter
	baseURL         string
	maxRetryTimeout time.Duration
	company         CompanyFunc
	log             zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ClientOptions, log zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 2
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	c := &Client{
		httpClient:      &http.Client{Timeout: opts.Timeout},
		limiter:         rate.NewLimiter(rate.Every(time.Second/time.Duration(opts.RequestsPerSec)), opts.RequestsPerSec),
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		maxRetryTimeout: opts.MaxRetryTimeout,
		company:         opts.Company,
		log:             log.With().Str("client", "yahoo").Logger(),
	}
	if c.company == nil {
		c.company = c.infoCompany
	}
	return c
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("yahoo returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("yahoo returned status %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether a status is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History returns daily sessions dated in [start, end]. Rows with a missing
// price are skipped; a symbol with no data yields an empty slice.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(domain.Day(start).Unix(), 10))
	params.Set("period2", strconv.FormatInt(domain.Day(end).AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "history")
	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse history for %s: %w", symbol, err)
	}
	if e := result.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []domain.PriceBar{}, nil
	}

	chart := result.Chart.Result[0]
	quote := chart.Indicators.Quote[0]
	last := domain.Day(end)

	bars := make([]domain.PriceBar, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		o, h, l, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue
		}

		// Sessions are dated by the exchange's local calendar day.
		date := domain.Day(time.Unix(ts+chart.Meta.GMTOffset, 0).UTC())
		if date.Before(domain.Day(start)) || date.After(last) {
			continue
		}

		volume := int64(0)
		if v := at(quote.Volume, i); v != nil {
			volume = *v
		}

		bars = append(bars, domain.PriceBar{
			Date:   date,
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *cl,
			Volume: volume,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("sessions", len(bars)).
		Msg("Fetched price history")
	return bars, nil
}

// Company returns static metadata for symbol.
func (c *Client) Company(ctx context.Context, symbol string) (*domain.CompanyInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.company(ctx, symbol)
}

func at[T any](values []*T, i int) *T {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// get performs a rate limited GET, retrying transport errors, 429 and 5xx
// with exponential backoff.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			// A 404 carries a chart error document worth decoding.
			if resp.StatusCode == http.StatusNotFound && json.Valid(data) {
				body = data
				return nil
			}
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
			if retryable(resp.StatusCode) {
				c.log.Debug().Int("status", resp.StatusCode).Msg("Retrying Yahoo request")
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		body = data
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxRetryTimeout

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent.Err
		}
		return nil, err
	}
	return body, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
