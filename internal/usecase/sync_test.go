package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
	"TradeAgent/internal/service/binance"
)

type fakeStorage struct {
	batches  map[string][]models.Candle
	single   []models.Candle
	storeErr error
}

func newFakeStorage() *fakeStorage { return &fakeStorage{batches: make(map[string][]models.Candle)} }

func (s *fakeStorage) Init(ctx context.Context) error { return nil }

func (s *fakeStorage) Store(ctx context.Context, symbol string, tf domrepo.Timeframe, c *models.Candle) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.single = append(s.single, *c)
	return nil
}

func (s *fakeStorage) StoreBatch(ctx context.Context, symbol string, tf domrepo.Timeframe, candles []models.Candle) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	key := symbol + ":" + string(tf)
	s.batches[key] = append(s.batches[key], candles...)
	return nil
}

func (s *fakeStorage) Query(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time, limit int) ([]models.Candle, error) {
	return nil, nil
}

func (s *fakeStorage) LatestN(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) ([]models.Candle, error) {
	return nil, nil
}

func (s *fakeStorage) Health(ctx context.Context) error { return nil }
func (s *fakeStorage) Close() error                     { return nil }

func klinesServer(t *testing.T, bars int) *httptest.Server {
	t.Helper()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > bars {
			limit = bars
		}
		var end int64
		if v := r.URL.Query().Get("endTime"); v != "" {
			end, _ = strconv.ParseInt(v, 10, 64)
		} else {
			end = base.Add(time.Duration(bars) * time.Hour).UnixMilli()
		}
		rows := make([][]interface{}, 0, limit)
		for i := 0; i < bars; i++ {
			openMs := base.Add(time.Duration(i) * time.Hour).UnixMilli()
			if openMs > end {
				break
			}
			price := 100 + float64(i)
			rows = append(rows, []interface{}{
				float64(openMs),
				fmt.Sprintf("%g", price), fmt.Sprintf("%g", price+1),
				fmt.Sprintf("%g", price-1), fmt.Sprintf("%g", price+0.5),
				"10",
				float64(openMs + 3599999),
			})
		}
		if len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
}

func TestSyncFetchesValidatesAndStores(t *testing.T) {
	srv := klinesServer(t, 48)
	defer srv.Close()

	rest := binance.NewREST(srv.URL, 1000, 1, time.Millisecond, time.Second, testLogger(t))
	storage := newFakeStorage()
	m := newFakeMetrics()
	uc := NewSyncUseCase(rest, storage, m, testLogger(t), 5)

	report, err := uc.Sync(context.Background(), "BTCUSDT", domrepo.TF1h, 48)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Total != 48 {
		t.Fatalf("report total = %d", report.Total)
	}
	if report.Score < 1 {
		t.Fatalf("contiguous series should score 1.0, got %v", report.Score)
	}
	if got := len(storage.batches["BTCUSDT:1h"]); got != 48 {
		t.Fatalf("stored %d candles, want 48", got)
	}
	if m.ingested != 48 {
		t.Fatalf("ingested metric = %d", m.ingested)
	}
}

func TestSyncAllStopsOnFirstError(t *testing.T) {
	srv := klinesServer(t, 24)
	defer srv.Close()

	rest := binance.NewREST(srv.URL, 1000, 1, time.Millisecond, time.Second, testLogger(t))
	storage := newFakeStorage()
	storage.storeErr = fmt.Errorf("disk full")
	uc := NewSyncUseCase(rest, storage, newFakeMetrics(), testLogger(t), 5)

	err := uc.SyncAll(context.Background(), []string{"BTCUSDT", "ETHUSDT"}, []domrepo.Timeframe{domrepo.TF1h}, 24)
	if err == nil {
		t.Fatalf("expected store error to abort")
	}
}
