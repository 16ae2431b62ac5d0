package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analysisDuration *prometheus.HistogramVec
	candlesIngested  *prometheus.CounterVec
	published        *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analysisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradeagent_analysis_duration_seconds",
				Help:    "Duration of a full facts computation for one symbol and timeframe",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol", "tf"},
		),
		candlesIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeagent_candles_ingested_total",
				Help: "Total number of candles written to storage",
			},
			[]string{"symbol", "tf"},
		),
		published: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeagent_messages_published_total",
				Help: "Total number of payloads published to a topic",
			},
			[]string{"topic", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeagent_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradeagent_last_price",
				Help: "Last observed close price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordAnalysis records the duration of one analysis pass.
func (r *Recorder) RecordAnalysis(symbol, tf string, seconds float64) {
	r.analysisDuration.WithLabelValues(symbol, tf).Observe(seconds)
}

// RecordCandlesIngested counts candles persisted to storage.
func (r *Recorder) RecordCandlesIngested(symbol, tf string, n int) {
	r.candlesIngested.WithLabelValues(symbol, tf).Add(float64(n))
}

// RecordPublished counts payloads published to a topic.
func (r *Recorder) RecordPublished(topic, symbol string) {
	r.published.WithLabelValues(topic, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last close price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}
