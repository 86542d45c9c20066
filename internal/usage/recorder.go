// Package usage persists the anonymized audit trail of AI calls. Recording
// is strictly best-effort: it must never block, fail, or slow the call that
// produced the record.
package usage

import (
	"context"
	"log"
	"time"

	"github.com/cubicleally/ai-gateway/internal/identity"
	"github.com/cubicleally/ai-gateway/internal/models"
)

const batchSize = 100

// Sink is where finished batches go. *repository.UsageLogRepository
// satisfies it.
type Sink interface {
	CreateBatch(ctx context.Context, logs []*models.UsageLog) error
}

type Recorder struct {
	sink       Sink
	ch         chan *models.UsageLog
	flushEvery time.Duration
	done       chan struct{}
	stopped    chan struct{}
}

func NewRecorder(sink Sink, bufferSize int, flushEvery time.Duration) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if flushEvery <= 0 {
		flushEvery = 5 * time.Second
	}

	r := &Recorder{
		sink:       sink,
		ch:         make(chan *models.UsageLog, bufferSize),
		flushEvery: flushEvery,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	go r.worker()

	return r
}

// Record queues one usage record. The prompt text is hashed before it enters
// the queue, so the raw text never reaches storage. Never blocks: when the
// buffer is full the record is dropped and the drop is logged.
func (r *Recorder) Record(id identity.Identity, category, inputText string, inputTokens, outputTokens int, model string) {
	entry := &models.UsageLog{
		UserID:       id.UserID,
		APIKeyID:     id.APIKeyID,
		Category:     category,
		InputHash:    models.HashInput(inputText),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Model:        model,
		CreatedAt:    time.Now().UTC(),
	}

	select {
	case r.ch <- entry:
	default:
		log.Printf("usage: buffer full, dropping %s record", category)
	}
}

// Close flushes everything still queued and stops the worker.
func (r *Recorder) Close() {
	close(r.done)
	<-r.stopped
}

func (r *Recorder) worker() {
	defer close(r.stopped)

	batch := make([]*models.UsageLog, 0, batchSize)
	ticker := time.NewTicker(r.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case entry := <-r.ch:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				r.flush(batch)
				batch = make([]*models.UsageLog, 0, batchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = make([]*models.UsageLog, 0, batchSize)
			}
		case <-r.done:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case entry := <-r.ch:
					batch = append(batch, entry)
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch, logging failures instead of propagating them.
func (r *Recorder) flush(batch []*models.UsageLog) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.sink.CreateBatch(ctx, batch); err != nil {
		log.Printf("usage: failed to persist %d records: %v", len(batch), err)
	}
}
