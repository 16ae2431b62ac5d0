package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
	"TradeAgent/internal/service/ratelimit"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, ev *models.CandleEvent) error
}

// IngestPipeline sits between the exchange stream and the processor.
// It validates events, throttles per symbol+timeframe, and buffers when
// downstream is unavailable, flushing with backoff.
type IngestPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxEPS  int
	bufSize int
	bufCh   chan *models.CandleEvent
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	limiter *ratelimit.Limiter
}

type PipelineOption func(*IngestPipeline)

// WithMaxEPS sets the max accepted events per second per symbol+tf.
func WithMaxEPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxEPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size used when downstream fails.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		proc:     proc,
		metrics:  metrics,
		maxEPS:   20,
		bufSize:  1000,
		stopCh:  make(chan struct{}),
		limiter: ratelimit.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.CandleEvent, p.bufSize)
	return p
}

// Start launches background flushing of buffered events.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case ev := <-p.bufCh:
				if ev == nil {
					continue
				}
				if err := p.proc.Process(ctx, ev); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- ev:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards an event downstream,
// buffering on errors.
func (p *IngestPipeline) Process(ctx context.Context, ev *models.CandleEvent) error {
	if err := validateEvent(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(ev.Symbol + ":" + ev.TF) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, ev); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- ev:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

func validateEvent(ev *models.CandleEvent) error {
	if ev == nil {
		return fmt.Errorf("event nil")
	}
	if ev.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if ev.TF == "" {
		return fmt.Errorf("timeframe empty")
	}
	if ev.Candle.OpenTime.IsZero() {
		return fmt.Errorf("open time zero")
	}
	return ev.Candle.Validate()
}

func (p *IngestPipeline) allow(key string) bool {
	if p.maxEPS <= 0 {
		return true
	}
	return p.limiter.Allow(key, float64(p.maxEPS), float64(p.maxEPS))
}
