package marketdata

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rzzdr/option-pricing-engine/pkg/metrics"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/circuit"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// Store wraps a Fetcher with a deterministic on-disk cache. Cache files are
// keyed by a hash of (source, symbol, start, end, interval) so the same
// request always resolves to the same file; a corrupted cache entry falls
// through to a refetch.
type Store struct {
	dir      string
	source   string
	fetcher  Fetcher
	breaker  *circuit.Breaker
	recorder *metrics.Recorder
	log      *logger.Logger
}

// NewStore creates a cached market data store rooted at dir. Fetches run
// behind a circuit breaker so a flapping upstream fails fast instead of
// stalling every request on a timeout.
func NewStore(dir, source string, fetcher Fetcher, recorder *metrics.Recorder) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating market data cache directory")
	}
	return &Store{
		dir:      dir,
		source:   source,
		fetcher:  fetcher,
		breaker:  circuit.New("marketdata", circuit.DefaultConfig()),
		recorder: recorder,
		log:      logger.GetLogger("marketdata.store"),
	}, nil
}

func (s *Store) cachePath(symbol, start, end, interval string) string {
	key := fmt.Sprintf("%s_%s_%s_%s_%s", s.source, symbol, start, end, interval)
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, fmt.Sprintf("%s_%x.csv", symbol, sum[:8]))
}

// GetBars returns the historical bars for the request, serving from cache
// when possible
func (s *Store) GetBars(ctx context.Context, symbol, start, end, interval string) ([]Bar, error) {
	if symbol == "" {
		return nil, errors.InvalidInput("symbol is required")
	}
	if interval == "" {
		interval = "1d"
	}

	path := s.cachePath(symbol, start, end, interval)
	if bars, err := readCache(path); err == nil {
		s.recorder.RecordMarketDataCache("hit")
		s.log.Debugf("Loaded %s from cache: %s", symbol, path)
		return bars, nil
	} else if !os.IsNotExist(err) {
		s.log.Warnf("Cache load for %s failed, refetching: %v", symbol, err)
	}
	s.recorder.RecordMarketDataCache("miss")

	var bars []Bar
	err := s.breaker.Execute(func() error {
		var fetchErr error
		bars, fetchErr = s.fetcher.Fetch(ctx, symbol, start, end, interval)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	if err := writeCache(path, bars); err != nil {
		// serve the fetched data even if the cache write fails
		s.log.Warnf("Cache write for %s failed: %v", symbol, err)
	}
	return bars, nil
}

// GetCloses returns just the close-price series for the request
func (s *Store) GetCloses(ctx context.Context, symbol, start, end, interval string) ([]float64, error) {
	bars, err := s.GetBars(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes, nil
}

func readCache(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("cache file %s has no data rows", path)
	}

	bars := make([]Bar, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 2 {
			return nil, fmt.Errorf("cache file %s has a malformed row", path)
		}
		closePrice, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, err
		}
		bars = append(bars, Bar{Date: rec[0], Close: closePrice})
	}
	return bars, nil
}

func writeCache(path string, bars []Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "close"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{b.Date, strconv.FormatFloat(b.Close, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
