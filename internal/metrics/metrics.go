// Package metrics instruments provider calls and fans records out to a
// durable log and a queryable store. Persistence never blocks the turn path
// and a failing sink never fails the caller.
package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/provider"
)

// OutcomeSuccess marks a provider call that returned a usable reply. Failed
// calls record the provider error kind instead.
const OutcomeSuccess = "success"

// Record is one append-only measurement of a provider call.
type Record struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	ScenarioID       string    `json:"scenarioId,omitempty"`
	Provider         string    `json:"provider"`
	Operation        string    `json:"operation"`
	LatencyMS        int64     `json:"latencyMs"`
	PromptTokens     int       `json:"promptTokens,omitempty"`
	CompletionTokens int       `json:"completionTokens,omitempty"`
	TokensReported   bool      `json:"tokensReported"`
	Outcome          string    `json:"outcome"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Sink persists records. Implementations must tolerate concurrent writes.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// Meta identifies the call being instrumented.
type Meta struct {
	SessionID  string
	ScenarioID string
	Operation  string
}

// Collector wraps provider invocations and persists a record per call,
// success or failure, through a background worker.
type Collector struct {
	sinks []Sink
	queue chan Record
	wg    sync.WaitGroup
	once  sync.Once
	done  chan struct{}
}

// NewCollector starts a collector writing to the given sinks.
func NewCollector(sinks ...Sink) *Collector {
	c := &Collector{
		sinks: sinks,
		queue: make(chan Record, 256),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

// Instrument runs a provider call, measuring latency and token counts
// regardless of outcome. The record is queued for persistence; the caller
// never waits on the sinks.
func (c *Collector) Instrument(ctx context.Context, providerName string, meta Meta, call func(context.Context) (provider.Reply, error)) (provider.Reply, string, error) {
	rec := Record{
		ID:         uuid.NewString(),
		SessionID:  meta.SessionID,
		ScenarioID: meta.ScenarioID,
		Provider:   providerName,
		Operation:  meta.Operation,
		CreatedAt:  time.Now().UTC(),
	}

	start := time.Now()
	reply, err := call(ctx)
	rec.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		rec.Outcome = string(provider.KindOf(err))
		if rec.Outcome == "" {
			rec.Outcome = "error"
		}
	} else {
		rec.Outcome = OutcomeSuccess
		rec.PromptTokens = reply.PromptTokens
		rec.CompletionTokens = reply.CompletionTokens
		rec.TokensReported = reply.TokensReported
	}

	c.enqueue(rec)
	return reply, rec.ID, err
}

// Flush blocks until every queued record has been offered to all sinks.
func (c *Collector) Flush() {
	c.wg.Wait()
}

// Close drains the queue and closes the sinks.
func (c *Collector) Close() error {
	c.once.Do(func() {
		c.wg.Wait()
		close(c.queue)
		<-c.done
	})
	var firstErr error
	for _, sink := range c.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Collector) enqueue(rec Record) {
	c.wg.Add(1)
	select {
	case c.queue <- rec:
	default:
		// Shedding beats stalling a turn; the loss is logged.
		c.wg.Done()
		log.Printf("[metrics] queue full, dropping record %s", rec.ID)
	}
}

func (c *Collector) run() {
	defer close(c.done)
	for rec := range c.queue {
		for _, sink := range c.sinks {
			// Each sink gets the write even when a sibling failed.
			if err := sink.Write(context.Background(), rec); err != nil {
				log.Printf("[metrics] sink write failed: %v", err)
			}
		}
		c.wg.Done()
	}
}
