package usecase

import (
	"context"

	"TradeAgent/internal/domain/models"
	drepo "TradeAgent/internal/domain/repository"
	mid "TradeAgent/internal/middleware"
)

// CandleCollector pulls candle events from the exchange stream and
// forwards closed bars to the processor. Unclosed updates only refresh
// the last-price gauge.
type CandleCollector struct {
	stream  drepo.CandleStream
	proc    *CandleProcessor
	metrics drepo.Metrics
	pipe    *mid.IngestPipeline
}

// NewCandleCollector creates a new CandleCollector instance.
func NewCandleCollector(stream drepo.CandleStream, proc *CandleProcessor, metrics drepo.Metrics, pipe *mid.IngestPipeline) *CandleCollector {
	return &CandleCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the exchange stream is connected.
func (c *CandleCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *CandleCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	evCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, evCh, errCh)
	return nil
}

func (c *CandleCollector) consume(ctx context.Context, evCh <-chan *models.CandleEvent, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case ev := <-evCh:
			if ev == nil {
				continue
			}
			c.metrics.RecordLastPrice(ev.Symbol, ev.Candle.Close)
			if !ev.Closed {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, ev)
			} else {
				_ = c.proc.Process(ctx, ev)
			}
		}
	}
}

// Processor returns the underlying CandleProcessor for lifecycle management.
func (c *CandleCollector) Processor() *CandleProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *CandleCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
