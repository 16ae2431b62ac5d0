package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TradeAgent/internal/backtest"
	"TradeAgent/internal/domain/repository"
	"TradeAgent/internal/handler/api"
	mid "TradeAgent/internal/middleware"
	internalrepo "TradeAgent/internal/repository"
	"TradeAgent/internal/service/binance"
	"TradeAgent/internal/usecase"
	pkgcache "TradeAgent/pkg/cache"
	pkgch "TradeAgent/pkg/clickhouse"
	"TradeAgent/pkg/config"
	pkgkafka "TradeAgent/pkg/kafka"
	applogger "TradeAgent/pkg/logger"
	"TradeAgent/pkg/metrics"
	"TradeAgent/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	l, err := applogger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// database exists. Tables are created by the stores' Init methods.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideCandleStorage creates the ClickHouse candle store and its tables.
func ProvideCandleStorage(chClient *pkgch.Client, l *applogger.Logger) (*internalrepo.CHCandleStore, error) {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("candle store init: %w", err)
	}
	return store, nil
}

// ProvideFactsStore creates the ClickHouse facts store and its tables.
func ProvideFactsStore(chClient *pkgch.Client, l *applogger.Logger) (*internalrepo.CHFactsStore, error) {
	store := internalrepo.NewCHFactsStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("facts store init: %w", err)
	}
	return store, nil
}

// ProvideRedisCache creates the Redis cache client, or nil when Redis
// is disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Redis.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideFactsCache builds the facts cache. With Redis enabled it is a
// layered cache (in-process L1 in front of Redis); without Redis the
// in-process cache alone still shields the store from hot readers.
func ProvideFactsCache(rc *pkgcache.RedisCache) repository.FactsCache {
	if rc == nil {
		return internalrepo.NewCachedFacts(pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(256),
		))
	}
	return internalrepo.NewCachedFacts(pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(256),
	))
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher wraps the Kafka producer as the domain publisher.
// Nil when Kafka is disabled.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer,
		cfg.Kafka.FactsTopic, cfg.Kafka.PlansTopic, cfg.Kafka.CandlesTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is
// disabled or the ingest backend does not go through Kafka.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Ingest.Backend != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCandlesHandler handles closed candles arriving from Kafka.
func ProvideCandlesHandler(storage *internalrepo.CHCandleStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.CandlesTopic, storage, m)
}

// ProvideCandleStream creates the Binance WebSocket kline stream.
func ProvideCandleStream(cfg *config.Config, l *applogger.Logger) repository.CandleStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		cfg.Binance.Intervals,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
		l,
	)
}

// ProvideBinanceREST creates the Binance REST kline client.
func ProvideBinanceREST(cfg *config.Config, l *applogger.Logger) *binance.REST {
	return binance.NewREST(
		cfg.Binance.RESTBaseURL,
		cfg.Binance.PageLimit,
		cfg.Binance.RetryMax,
		cfg.Binance.RetryBackoff,
		cfg.Binance.RequestTimeout,
		l,
	)
}

// ProvideAnalyzeUseCase wires the facts computation pipeline.
func ProvideAnalyzeUseCase(
	storage *internalrepo.CHCandleStore,
	facts *internalrepo.CHFactsStore,
	cache repository.FactsCache,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.AnalyzeUseCase {
	return usecase.NewAnalyzeUseCase(
		storage, facts, cache, pub, m, l,
		cfg.Analysis.Lookback,
		cfg.Redis.FactsTTL,
		cfg.Analysis.Trend,
		cfg.Analysis.SR,
	)
}

// ProvidePlanUseCase wires the trade plan builder.
func ProvidePlanUseCase(
	analyze *usecase.AnalyzeUseCase,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PlanUseCase {
	return usecase.NewPlanUseCase(analyze, pub, m, l, cfg.Analysis.Risk)
}

// ProvideBacktestUseCase wires the backtest runner.
func ProvideBacktestUseCase(
	storage *internalrepo.CHCandleStore,
	facts *internalrepo.CHFactsStore,
	analyze *usecase.AnalyzeUseCase,
	planUC *usecase.PlanUseCase,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.BacktestUseCase {
	signals := backtest.SignalParams{
		ZoneMult: cfg.Backtest.ZoneMult,
		Inertia:  cfg.Analysis.Inertia,
	}
	return usecase.NewBacktestUseCase(storage, facts, analyze, planUC, m, l, signals)
}

// ProvideCandlesUseCase wires the candle query service.
func ProvideCandlesUseCase(storage *internalrepo.CHCandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(storage)
}

// ProvideSyncUseCase wires the REST backfill with data quality checks.
func ProvideSyncUseCase(
	rest *binance.REST,
	storage *internalrepo.CHCandleStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.SyncUseCase {
	return usecase.NewSyncUseCase(rest, storage, m, l, cfg.Ingest.GapThreshold)
}

// ProvideCandleProcessor routes closed candles to the configured backend.
func ProvideCandleProcessor(
	pub repository.Publisher,
	storage *internalrepo.CHCandleStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.CandleProcessor {
	return usecase.NewCandleProcessor(pub, storage, m, cfg.Ingest.Backend)
}

// ProvideCandleCollector wires the stream to the processor through the
// ingest pipeline.
func ProvideCandleCollector(
	stream repository.CandleStream,
	proc *usecase.CandleProcessor,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.CandleCollector {
	pipe := mid.NewIngestPipeline(proc, m,
		mid.WithMaxEPS(cfg.Ingest.MaxEPS),
		mid.WithBufferSize(cfg.Ingest.BufferSize),
	)
	return usecase.NewCandleCollector(stream, proc, m, pipe)
}

// ProvideAnalysisHandler creates the HTTP API handler.
func ProvideAnalysisHandler(
	l *applogger.Logger,
	analyze *usecase.AnalyzeUseCase,
	plans *usecase.PlanUseCase,
	bt *usecase.BacktestUseCase,
	candles *usecase.CandlesUseCase,
) *api.AnalysisHandler {
	return api.NewAnalysisHandler(l, analyze, plans, bt, candles)
}

// kafkaLogSink adapts the Kafka producer to the log collector.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.CandleCollector,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	chClient *pkgch.Client,
	redisCache *pkgcache.RedisCache,
	handler *api.AnalysisHandler,
	storage *internalrepo.CHCandleStore,
	sync *usecase.SyncUseCase,
	bt *usecase.BacktestUseCase,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if producer != nil {
		l.AddCollector(&applogger.CollectorConfig{
			FlushInterval:  30 * time.Second,
			CountThreshold: 100,
			Topic:          "app.logs",
			Publisher:      kafkaLogSink{producer: producer},
		})
	}
	return server.New(cfg, l, collector, consumer, kh, chClient, redisCache, handler, storage, sync, bt)
}
