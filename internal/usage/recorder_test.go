package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubicleally/ai-gateway/internal/identity"
	"github.com/cubicleally/ai-gateway/internal/models"
)

type captureSink struct {
	mu   sync.Mutex
	logs []*models.UsageLog
	err  error
}

func (s *captureSink) CreateBatch(ctx context.Context, logs []*models.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, logs...)
	return nil
}

func (s *captureSink) all() []*models.UsageLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.UsageLog(nil), s.logs...)
}

func TestRecord_StoresHashNeverRawText(t *testing.T) {
	sink := &captureSink{}
	recorder := NewRecorder(sink, 10, time.Hour)

	userID := uuid.New()
	caller := identity.Identity{UserID: &userID, Tier: models.TierPro}

	const prompt = "my secret career plans"
	recorder.Record(caller, "ai_interpret", prompt, 42, 17, "gpt-4o-mini")
	recorder.Close()

	logs := sink.all()
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, models.HashInput(prompt), entry.InputHash)
	assert.Len(t, entry.InputHash, 64)
	assert.NotContains(t, entry.InputHash, "secret")
	assert.Equal(t, "ai_interpret", entry.Category)
	assert.Equal(t, 42, entry.InputTokens)
	assert.Equal(t, 17, entry.OutputTokens)
	assert.Equal(t, "gpt-4o-mini", entry.Model)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)
}

func TestRecord_IdenticalInputsHashIdentically(t *testing.T) {
	sink := &captureSink{}
	recorder := NewRecorder(sink, 10, time.Hour)

	caller := identity.Anonymous("1.2.3.4")
	recorder.Record(caller, "ai_enhance", "same text", 1, 1, "m")
	recorder.Record(caller, "ai_enhance", "same text", 2, 2, "m")
	recorder.Close()

	logs := sink.all()
	require.Len(t, logs, 2)
	assert.Equal(t, logs[0].InputHash, logs[1].InputHash)
	assert.Nil(t, logs[0].UserID)
}

func TestRecord_SinkFailureIsSwallowed(t *testing.T) {
	sink := &captureSink{err: errors.New("db down")}
	recorder := NewRecorder(sink, 10, time.Hour)

	// Must not panic or propagate anything.
	recorder.Record(identity.Anonymous("1.2.3.4"), "ai_coaching", "text", 1, 1, "m")
	recorder.Close()

	assert.Empty(t, sink.all())
}

func TestRecord_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	sink := &captureSink{}
	recorder := &Recorder{
		sink:       sink,
		ch:         make(chan *models.UsageLog, 1),
		flushEvery: time.Hour,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	// No worker running: second record finds the buffer full.
	done := make(chan struct{})
	go func() {
		recorder.Record(identity.Anonymous("1.2.3.4"), "ai_default", "a", 1, 1, "m")
		recorder.Record(identity.Anonymous("1.2.3.4"), "ai_default", "b", 1, 1, "m")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
}
