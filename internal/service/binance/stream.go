package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"TradeAgent/internal/domain/models"
	drepo "TradeAgent/internal/domain/repository"
	applogger "TradeAgent/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream implements a CandleStream backed by Binance kline websockets.
// One connection carries every configured symbol and interval.
type Stream struct {
	websocketURL   string
	symbols        []string
	intervals      []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *applogger.Logger

	conn      *websocket.Conn
	connected bool
	subID     int
}

// NewStream creates a Binance kline stream.
func NewStream(websocketURL string, symbols, intervals []string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) drepo.CandleStream {
	return &Stream{
		websocketURL:   websocketURL,
		symbols:        symbols,
		intervals:      intervals,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l,
	}
}

// Connect establishes the websocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	s.l.Info("binance stream connected", applogger.String("url", s.websocketURL))
	return nil
}

// Subscribe subscribes to kline streams for every symbol and interval.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("binance not connected")
	}
	params := make([]string, 0, len(s.symbols)*len(s.intervals))
	for _, sym := range s.symbols {
		for _, iv := range s.intervals {
			params = append(params, fmt.Sprintf("%s@kline_%s", strings.ToLower(sym), iv))
		}
	}
	s.subID++
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     s.subID,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.l.Info("binance streams subscribed",
		applogger.Int("streams", len(params)),
		applogger.Strings("symbols", s.symbols),
	)
	return nil
}

type wsKline struct {
	OpenTime int64  `json:"t"`
	Interval string `json:"i"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	Final    bool   `json:"x"`
}

type wsMessage struct {
	Event  string  `json:"e"`
	Symbol string  `json:"s"`
	Kline  wsKline `json:"k"`
}

// Read streams candle events and errors. The error channel reports the
// first fatal read error; callers are expected to Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan *models.CandleEvent, <-chan error) {
	events := make(chan *models.CandleEvent, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PongMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// subscription acks and other non-kline frames
					continue
				}
				if m.Event != "kline" {
					continue
				}
				ev, err := klineToEvent(&m)
				if err != nil {
					s.l.Warn("binance kline parse error", applogger.Error(err))
					continue
				}
				select {
				case events <- ev:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return events, errs
}

func klineToEvent(m *wsMessage) (*models.CandleEvent, error) {
	o, err := strconv.ParseFloat(m.Kline.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", m.Kline.Open, err)
	}
	h, err := strconv.ParseFloat(m.Kline.High, 64)
	if err != nil {
		return nil, fmt.Errorf("high %q: %w", m.Kline.High, err)
	}
	l, err := strconv.ParseFloat(m.Kline.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("low %q: %w", m.Kline.Low, err)
	}
	c, err := strconv.ParseFloat(m.Kline.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("close %q: %w", m.Kline.Close, err)
	}
	v, err := strconv.ParseFloat(m.Kline.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("volume %q: %w", m.Kline.Volume, err)
	}
	return &models.CandleEvent{
		Symbol: m.Symbol,
		TF:     m.Kline.Interval,
		Closed: m.Kline.Final,
		Candle: models.Candle{
			OpenTime: time.UnixMilli(m.Kline.OpenTime).UTC(),
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			Volume:   v,
		},
	}, nil
}

// Reconnect closes and reconnects, then resubscribes.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the websocket connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
