package binance

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"TradeAgent/internal/domain/models"
	pkghttp "TradeAgent/pkg/http"
	applogger "TradeAgent/pkg/logger"
)

// REST fetches historical klines from the Binance REST API. Used to
// backfill storage on startup and to repair gaps after reconnects.
type REST struct {
	baseURL      string
	pageLimit    int
	retryMax     int
	retryBackoff time.Duration
	client       *pkghttp.Client
	l            *applogger.Logger
}

func NewREST(baseURL string, pageLimit, retryMax int, retryBackoff, requestTimeout time.Duration, l *applogger.Logger) *REST {
	if pageLimit <= 0 || pageLimit > 1000 {
		pageLimit = 1000
	}
	return &REST{
		baseURL:      baseURL,
		pageLimit:    pageLimit,
		retryMax:     retryMax,
		retryBackoff: retryBackoff,
		client:       pkghttp.NewClient(pkghttp.WithTimeout(requestTimeout)),
		l:            l,
	}
}

// FetchKlines returns up to limit bars ending at endTime (exclusive of
// anything later). A zero endTime means "latest".
func (r *REST) FetchKlines(ctx context.Context, symbol, interval string, limit int, endTime time.Time) ([]models.Candle, error) {
	params := map[string][]string{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	if !endTime.IsZero() {
		params["endTime"] = []string{strconv.FormatInt(endTime.UnixMilli(), 10)}
	}

	var rows [][]interface{}
	var lastErr error
	for attempt := 0; attempt <= r.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.retryBackoff * time.Duration(attempt)):
			}
		}
		lastErr = r.client.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method:      pkghttp.MethodGet,
			URL:         r.baseURL + "/api/v3/klines",
			QueryParams: params,
		}, &rows)
		if lastErr == nil {
			break
		}
		r.l.Warn("binance klines request failed",
			applogger.String("symbol", symbol),
			applogger.String("interval", interval),
			applogger.Int("attempt", attempt+1),
			applogger.Error(lastErr),
		)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, lastErr)
	}

	out := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		c, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("kline row %d: %w", i, err)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime.Before(out[j].OpenTime) })
	return out, nil
}

// FetchLatestN pages backwards until n bars are collected or history
// runs out, returned ascending by open time.
func (r *REST) FetchLatestN(ctx context.Context, symbol, interval string, n int) ([]models.Candle, error) {
	var out []models.Candle
	end := time.Time{}
	for len(out) < n {
		want := n - len(out)
		if want > r.pageLimit {
			want = r.pageLimit
		}
		page, err := r.FetchKlines(ctx, symbol, interval, want, end)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		out = append(page, out...)
		end = page[0].OpenTime.Add(-time.Millisecond)
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

// Binance kline rows are positional arrays mixing numbers and strings:
// [openTime, open, high, low, close, volume, closeTime, ...].
func parseKlineRow(row []interface{}) (models.Candle, error) {
	var c models.Candle
	if len(row) < 6 {
		return c, fmt.Errorf("short row (%d fields)", len(row))
	}
	ms, ok := row[0].(float64)
	if !ok {
		return c, fmt.Errorf("open time %T", row[0])
	}
	c.OpenTime = time.UnixMilli(int64(ms)).UTC()

	fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i, dst := range fields {
		s, ok := row[i+1].(string)
		if !ok {
			return c, fmt.Errorf("field %d: %T", i+1, row[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, fmt.Errorf("field %d %q: %w", i+1, s, err)
		}
		*dst = v
	}
	return c, nil
}
