package repository

import (
	"context"

	"TradeAgent/internal/domain/models"
	"TradeAgent/internal/domain/repository"
	pkgkafka "TradeAgent/pkg/kafka"
)

// KafkaPublisher ships facts and plans to Kafka topics, keyed by symbol
// so per-symbol ordering is preserved across partitions.
type KafkaPublisher struct {
	producer     *pkgkafka.Producer
	factsTopic   string
	plansTopic   string
	candlesTopic string
}

// NewKafkaPublisher creates a Kafka-backed Publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, factsTopic, plansTopic, candlesTopic string) repository.Publisher {
	return &KafkaPublisher{
		producer:     producer,
		factsTopic:   factsTopic,
		plansTopic:   plansTopic,
		candlesTopic: candlesTopic,
	}
}

func (p *KafkaPublisher) PublishFacts(ctx context.Context, facts *models.FactsPayload) error {
	return p.producer.Publish(ctx, p.factsTopic, []byte(facts.Symbol), facts)
}

func (p *KafkaPublisher) PublishPlan(ctx context.Context, plan *models.Plan) error {
	return p.producer.Publish(ctx, p.plansTopic, []byte(plan.Symbol), plan)
}

func (p *KafkaPublisher) PublishCandle(ctx context.Context, ev *models.CandleEvent) error {
	key := []byte(ev.Symbol + ":" + ev.TF)
	return p.producer.Publish(ctx, p.candlesTopic, key, ev)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
