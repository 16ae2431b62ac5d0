package usecase

import (
	"context"
	"encoding/json"

	"TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
	pkgkafka "TradeAgent/pkg/kafka"
)

// KafkaCandlesHandler consumes candle events from Kafka and writes
// closed bars to storage.
type KafkaCandlesHandler struct {
	topic   string
	storage domrepo.CandleStorage
	metrics domrepo.Metrics
}

func NewKafkaCandlesHandler(topic string, storage domrepo.CandleStorage, metrics domrepo.Metrics) *KafkaCandlesHandler {
	return &KafkaCandlesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaCandlesHandler) Topic() string { return h.topic }

func (h *KafkaCandlesHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.CandleEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if !ev.Closed {
		return nil
	}
	if err := ev.Candle.Validate(); err != nil {
		h.metrics.RecordError("consumer_invalid")
		return err
	}
	if !domrepo.IsValidTimeframe(domrepo.Timeframe(ev.TF)) {
		h.metrics.RecordError("consumer_tf")
		return nil // drop, retrying cannot fix the event
	}

	if err := h.storage.Store(ctx, ev.Symbol, domrepo.Timeframe(ev.TF), &ev.Candle); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordCandlesIngested(ev.Symbol, ev.TF, 1)
	h.metrics.RecordLastPrice(ev.Symbol, ev.Candle.Close)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCandlesHandler)(nil)
