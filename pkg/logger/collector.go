package logger

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// Publisher ships aggregated log batches to an external sink.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectorConfig struct {
	FlushInterval  time.Duration // flush cadence (e.g. 30s)
	CountThreshold int           // max unique entries before an early flush
	Topic          string
	Publisher      Publisher
}

type AggregatedEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// Collector deduplicates repeated warn/error logs and flushes them in
// batches. Identical messages from the same call site collapse into a
// single entry with a count, so a flapping upstream does not flood the
// log topic.
type Collector struct {
	config  *CollectorConfig
	entries map[uint64]*AggregatedEntry
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewCollector(config *CollectorConfig) *Collector {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Collector{
		config:  config,
		entries: make(map[uint64]*AggregatedEntry),
		ctx:     ctx,
		cancel:  cancel,
	}

	c.wg.Add(1)
	go c.loop()

	return c
}

func (c *Collector) Add(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, caller)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.Count++
		entry.LastSeen = now
		return
	}

	c.entries[key] = &AggregatedEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}

	if len(c.entries) >= c.config.CountThreshold {
		c.flushLocked()
	}
}

// Identical messages re-emitted with different field values still share
// a key; the first occurrence's fields are kept as a sample.
func entryKey(level, message, caller string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(level))
	h.Write([]byte{0})
	h.Write([]byte(message))
	h.Write([]byte{0})
	h.Write([]byte(caller))
	return h.Sum64()
}

func (c *Collector) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
		case <-c.ctx.Done():
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
			return
		}
	}
}

func (c *Collector) flushLocked() {
	if len(c.entries) == 0 {
		return
	}

	batch := make([]AggregatedEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		batch = append(batch, *entry)
	}
	c.entries = make(map[uint64]*AggregatedEntry)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
			fmt.Printf("failed to publish aggregated logs: %v\n", err)
		}
	}()
}

func (c *Collector) Close() {
	c.cancel()
	c.wg.Wait()
}
