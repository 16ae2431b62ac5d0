package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	domrepo "TradeAgent/internal/domain/repository"
	"TradeAgent/internal/handler/api"
	internalrepo "TradeAgent/internal/repository"
	"TradeAgent/internal/usecase"
	pkgcache "TradeAgent/pkg/cache"
	pkgch "TradeAgent/pkg/clickhouse"
	"TradeAgent/pkg/config"
	xhttp "TradeAgent/pkg/http"
	pkgkafka "TradeAgent/pkg/kafka"
	applogger "TradeAgent/pkg/logger"
	"TradeAgent/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	collector  *usecase.CandleCollector
	consumer   *pkgkafka.Consumer
	kh         *usecase.KafkaCandlesHandler
	chClient   *pkgch.Client
	redisCache *pkgcache.RedisCache
	handler    *api.AnalysisHandler
	storage    *internalrepo.CHCandleStore
	sync       *usecase.SyncUseCase
	bt         *usecase.BacktestUseCase

	httpServer   *xhttp.Server
	jobPublisher *queue.RedisQueue
	jobConsumer  *queue.RedisQueue
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	chClient *pkgch.Client,
	redisCache *pkgcache.RedisCache,
	handler *api.AnalysisHandler,
	storage *internalrepo.CHCandleStore,
	sync *usecase.SyncUseCase,
	bt *usecase.BacktestUseCase,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		collector:  collector,
		consumer:   consumer,
		kh:         kh,
		chClient:   chClient,
		redisCache: redisCache,
		handler:    handler,
		storage:    storage,
		sync:       sync,
		bt:         bt,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Async backtests over the Redis job queue when Redis is available.
	if a.redisCache != nil {
		a.jobPublisher = queue.NewRedisPublisher(a.l, a.redisCache.Client())
		a.handler.SetJobQueue(a.jobPublisher)

		a.jobConsumer = queue.NewRedisConsumer(a.l, &queue.QueueConfig{
			Workers:    2,
			RetryLimit: 3,
			RetryDelay: 10 * time.Second,
		}, a.redisCache.Client(), []queue.Job{usecase.NewBacktestJob(a.bt, a.l)})
		if err := a.jobConsumer.Start(); err != nil {
			a.l.Error("job consumer start error", applogger.Error(err))
			return err
		}
		a.l.Info("backtest job queue started")
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	a.httpServer.Echo().GET("/healthz", a.healthz)

	// Backfill history before live candles start arriving.
	if a.cfg.Ingest.BackfillOnStart {
		go func() {
			tfs := make([]domrepo.Timeframe, 0, len(a.cfg.Binance.Intervals))
			for _, iv := range a.cfg.Binance.Intervals {
				tfs = append(tfs, domrepo.NormalizeTimeframe(iv))
			}
			if err := a.sync.SyncAll(ctx, a.cfg.Binance.Symbols, tfs, a.cfg.Analysis.Lookback); err != nil {
				a.l.Warn("startup backfill error", applogger.Error(err))
			}
		}()
	}

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.l.Error("collector error", applogger.Error(err))
		}
	}()
	a.l.Info("collector started",
		applogger.Strings("symbols", a.cfg.Binance.Symbols),
		applogger.Strings("intervals", a.cfg.Binance.Intervals))

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services, sources before sinks.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Shutdown(ctx); err != nil {
		a.l.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.jobConsumer != nil {
		if err := a.jobConsumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("job consumer stop error", applogger.Error(err))
		}
	}

	// Closes the publisher and the candle store.
	a.collector.Processor().Close()

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.RemoveCollector()
	a.l.Info("shutdown complete")
	return nil
}

func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := a.storage.Health(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
