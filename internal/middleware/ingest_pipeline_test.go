package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"TradeAgent/internal/domain/models"
)

type recordingProc struct {
	mu     sync.Mutex
	events []*models.CandleEvent
	err    error
}

func (p *recordingProc) Process(ctx context.Context, ev *models.CandleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingProc) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type countingMetrics struct {
	errors map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{errors: make(map[string]int)} }

func (m *countingMetrics) RecordAnalysis(symbol, tf string, seconds float64) {}
func (m *countingMetrics) RecordCandlesIngested(symbol, tf string, n int)   {}
func (m *countingMetrics) RecordPublished(topic, symbol string)             {}
func (m *countingMetrics) RecordError(kind string)                          { m.errors[kind]++ }
func (m *countingMetrics) RecordLastPrice(symbol string, price float64)     {}

func validEvent() *models.CandleEvent {
	return &models.CandleEvent{
		Symbol: "BTCUSDT",
		TF:     "1h",
		Closed: true,
		Candle: models.Candle{
			OpenTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Open:     100, High: 101, Low: 99, Close: 100.5, Volume: 1,
		},
	}
}

func TestPipelineForwardsValidEvents(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, newCountingMetrics())

	if err := p.Process(context.Background(), validEvent()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.events) != 1 {
		t.Fatalf("forwarded %d events, want 1", len(proc.events))
	}
}

func TestPipelineRejectsInvalidEvents(t *testing.T) {
	proc := &recordingProc{}
	m := newCountingMetrics()
	p := NewIngestPipeline(proc, m)

	cases := []*models.CandleEvent{
		nil,
		{TF: "1h", Candle: models.Candle{OpenTime: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}},
		{Symbol: "BTCUSDT", Candle: models.Candle{OpenTime: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}},
		{Symbol: "BTCUSDT", TF: "1h", Candle: models.Candle{Open: 1, High: 1, Low: 1, Close: 1}},
	}
	for i, ev := range cases {
		if err := p.Process(context.Background(), ev); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if len(proc.events) != 0 {
		t.Fatalf("invalid events must not reach the processor")
	}
	if m.errors["pipeline_validate"] != len(cases) {
		t.Fatalf("expected %d validate errors, got %v", len(cases), m.errors)
	}
}

func TestPipelineThrottlesBursts(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, newCountingMetrics(), WithMaxEPS(5))

	for i := 0; i < 50; i++ {
		if err := p.Process(context.Background(), validEvent()); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}
	// The bucket starts full at maxEPS tokens; a tight burst may gain at
	// most a few refilled tokens on top.
	if len(proc.events) > 10 {
		t.Fatalf("throttle let %d of 50 events through", len(proc.events))
	}
	if len(proc.events) < 5 {
		t.Fatalf("initial burst capacity should pass, got %d", len(proc.events))
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &recordingProc{err: fmt.Errorf("downstream down")}
	m := newCountingMetrics()
	p := NewIngestPipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), validEvent()); err == nil {
		t.Fatalf("expected downstream error")
	}
	if m.errors["pipeline_process"] != 1 {
		t.Fatalf("expected pipeline_process error, got %v", m.errors)
	}

	// Recover downstream and let the background flusher drain the buffer.
	proc.setErr(nil)
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if proc.count() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("buffered event was not flushed, got %d", proc.count())
}
