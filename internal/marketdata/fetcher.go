package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// Bar is a single historical close observation
type Bar struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Fetcher retrieves historical close prices for a symbol over a date range.
// Dates are YYYY-MM-DD strings; interval is the bar interval tag (e.g. "1d").
type Fetcher interface {
	Fetch(ctx context.Context, symbol, start, end, interval string) ([]Bar, error)
}

// HTTPFetcher pulls CSV price history from an HTTP endpoint that accepts
// symbol/start/end/interval query parameters and responds with a header row
// followed by date,...,close records
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewHTTPFetcher creates a fetcher against the given CSV endpoint
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     logger.GetLogger("marketdata.fetcher"),
	}
}

// Fetch downloads and parses the close-price series
func (f *HTTPFetcher) Fetch(ctx context.Context, symbol, start, end, interval string) ([]Bar, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing market data base URL")
	}
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("start", start)
	q.Set("end", end)
	q.Set("interval", interval)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building market data request")
	}

	f.log.Infof("Fetching %s from %s", symbol, u.Host)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.IO(err.Error()), fmt.Sprintf("fetching data for %s", symbol))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.IO(fmt.Sprintf("fetching data for %s: HTTP %d", symbol, resp.StatusCode))
	}

	bars, err := parseCSV(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing data for %s", symbol)
	}
	if len(bars) == 0 {
		return nil, errors.IO(fmt.Sprintf("no data found for %s", symbol))
	}
	return bars, nil
}

// parseCSV reads a header row and date,...,close records; the close column
// is located by header name, defaulting to the last column
func parseCSV(r io.Reader) ([]Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.IO("empty CSV response")
	}
	closeIdx := len(header) - 1
	for i, name := range header {
		if name == "Close" || name == "close" {
			closeIdx = i
			break
		}
	}

	var bars []Bar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.IO(fmt.Sprintf("malformed CSV record: %v", err))
		}
		if len(record) <= closeIdx {
			continue
		}
		closePrice, err := strconv.ParseFloat(record[closeIdx], 64)
		if err != nil {
			continue
		}
		bars = append(bars, Bar{Date: record[0], Close: closePrice})
	}
	return bars, nil
}
