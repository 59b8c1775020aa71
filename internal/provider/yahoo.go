package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"regime-radar/internal/domain"
	"regime-radar/internal/series"

	"go.opentelemetry.io/otel/trace"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// ChartClient fetches daily close series from a Yahoo-style chart endpoint.
type ChartClient struct {
	tracer  trace.Tracer
	baseURL string
	client  *http.Client
}

func NewChartClient(tracer trace.Tracer, baseURL string) *ChartClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ChartClient{
		tracer:  tracer,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote    []quoteBlock    `json:"quote"`
		AdjClose []adjCloseBlock `json:"adjclose"`
	} `json:"indicators"`
}

// Provider rows use null for missing observations, hence the pointers.
type quoteBlock struct {
	Close []*float64 `json:"close"`
	Open  []*float64 `json:"open"`
	High  []*float64 `json:"high"`
	Low   []*float64 `json:"low"`
}

type adjCloseBlock struct {
	AdjClose []*float64 `json:"adjclose"`
}

// FetchDailyCloses retrieves the daily close series for ticker over the
// given lookback range. A response with no usable rows yields an empty
// series and no error; callers treat an empty series as data-unavailable.
func (c *ChartClient) FetchDailyCloses(ctx context.Context, ticker, lookback string) ([]domain.PricePoint, error) {
	ctx, span := c.tracer.Start(ctx, "provider.fetch-daily-closes")
	defer span.End()

	endpoint := fmt.Sprintf(
		"%s/v8/finance/chart/%s?range=%s&interval=1d&includeAdjustedClose=true",
		c.baseURL, url.PathEscape(ticker), url.QueryEscape(lookback),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request for %s: %w", ticker, err)
	}
	req.Header.Set("User-Agent", "regime-radar/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read chart response for %s: %w", ticker, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart endpoint returned %d for %s", resp.StatusCode, ticker)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode chart response for %s: %w", ticker, err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart endpoint error for %s: %s (%s)", ticker, parsed.Chart.Error.Description, parsed.Chart.Error.Code)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	closes := selectCloses(result)
	if len(closes) == 0 || len(result.Timestamp) == 0 {
		return nil, nil
	}

	n := len(result.Timestamp)
	if len(closes) < n {
		n = len(closes)
	}
	points := make([]domain.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		if closes[i] == nil {
			continue
		}
		points = append(points, domain.PricePoint{
			Date:  time.Unix(result.Timestamp[i], 0).UTC(),
			Close: *closes[i],
		})
	}

	return series.Normalize(points), nil
}

// selectCloses walks the field fallback chain: close, then adjusted close,
// then the first quote column with any data.
func selectCloses(result chartResult) []*float64 {
	if len(result.Indicators.Quote) > 0 {
		if vals := result.Indicators.Quote[0].Close; hasValues(vals) {
			return vals
		}
	}
	if len(result.Indicators.AdjClose) > 0 {
		if vals := result.Indicators.AdjClose[0].AdjClose; hasValues(vals) {
			return vals
		}
	}
	if len(result.Indicators.Quote) > 0 {
		q := result.Indicators.Quote[0]
		for _, vals := range [][]*float64{q.Open, q.High, q.Low} {
			if hasValues(vals) {
				return vals
			}
		}
	}
	return nil
}

func hasValues(vals []*float64) bool {
	for _, v := range vals {
		if v != nil {
			return true
		}
	}
	return false
}
