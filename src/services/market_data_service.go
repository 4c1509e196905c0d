package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/username/lotfolio/backend/src/logger"
	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/utils"
	"golang.org/x/net/publicsuffix"
)

// A valid browser User-Agent is crucial for the finance endpoints.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// Structs for Yahoo Finance API responses
type yahooSearchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		Exchange  string `json:"exchange"`
		Shortname string `json:"shortname"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
				} `json:"dividends"`
				Splits map[string]struct {
					Numerator   float64 `json:"numerator"`
					Denominator float64 `json:"denominator"`
				} `json:"splits"`
			} `json:"events"`
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
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// marketDataServiceImpl implements MarketDataService against the Yahoo
// Finance public endpoints. The base URL is injectable for tests.
type marketDataServiceImpl struct {
	httpClient *http.Client
	baseURL    string
}

func NewMarketDataService(baseURL string, timeout time.Duration) MarketDataService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &marketDataServiceImpl{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

func (s *marketDataServiceImpl) SearchTicker(ctx context.Context, query string) (string, error) {
	searchURL := fmt.Sprintf("%s/v1/finance/search?q=%s", s.baseURL, url.QueryEscape(query))

	var searchData yahooSearchResponse
	if err := s.getJSON(ctx, searchURL, &searchData); err != nil {
		return "", fmt.Errorf("symbol search for %q: %w", query, err)
	}
	if len(searchData.Quotes) == 0 {
		return "", fmt.Errorf("%w: %q", ErrTickerNotFound, query)
	}
	return searchData.Quotes[0].Symbol, nil
}

func (s *marketDataServiceImpl) CurrentQuote(ctx context.Context, symbol string) (float64, string, error) {
	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", s.baseURL, url.PathEscape(symbol))

	var chartData yahooChartResponse
	if err := s.getJSON(ctx, chartURL, &chartData); err != nil {
		return 0, "", fmt.Errorf("quote for %s: %w", symbol, err)
	}
	if chartData.Chart.Error != nil || len(chartData.Chart.Result) == 0 {
		return 0, "", fmt.Errorf("quote for %s: chart API returned an error or no result", symbol)
	}

	meta := chartData.Chart.Result[0].Meta
	return meta.RegularMarketPrice, meta.Currency, nil
}

func (s *marketDataServiceImpl) DailyHistory(ctx context.Context, symbol, startDate string) ([]models.DailyPrice, error) {
	start, err := time.Parse(utils.ISODateFormat, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid history start date %q: %w", startDate, err)
	}

	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&events=div%%7Csplit",
		s.baseURL, url.PathEscape(symbol), start.Unix(), time.Now().Unix())

	var chartData yahooChartResponse
	if err := s.getJSON(ctx, chartURL, &chartData); err != nil {
		return nil, fmt.Errorf("history for %s: %w", symbol, err)
	}
	if chartData.Chart.Error != nil || len(chartData.Chart.Result) == 0 {
		return nil, fmt.Errorf("history for %s: chart API returned an error or no result", symbol)
	}

	result := chartData.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("history for %s: no quote data", symbol)
	}
	quote := result.Indicators.Quote[0]

	var prices []models.DailyPrice
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		key := fmt.Sprintf("%d", ts)
		price := models.DailyPrice{
			Date:   time.Unix(ts, 0).UTC().Format(utils.ISODateFormat),
			Ticker: symbol,
			Close:  *quote.Close[i],
			Splits: 1,
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			price.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			price.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			price.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			price.Volume = *quote.Volume[i]
		}
		if div, ok := result.Events.Dividends[key]; ok {
			price.Dividends = div.Amount
		}
		if split, ok := result.Events.Splits[key]; ok && split.Denominator != 0 {
			price.Splits = split.Numerator / split.Denominator
		}
		prices = append(prices, price)
	}

	adjustForSplits(prices)
	return prices, nil
}

// adjustForSplits divides each day's prices by the cumulative product of
// all split ratios that happened after it, so the whole series is in
// post-split terms. The split day itself already trades post-split.
func adjustForSplits(prices []models.DailyPrice) {
	factor := 1.0
	for i := len(prices) - 1; i >= 0; i-- {
		prices[i].Open /= factor
		prices[i].High /= factor
		prices[i].Low /= factor
		prices[i].Close /= factor

		ratio := prices[i].Splits
		if ratio == 0 {
			ratio = 1
		}
		factor *= ratio
	}
}

func (s *marketDataServiceImpl) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
