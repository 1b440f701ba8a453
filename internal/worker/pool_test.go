package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"avatar-relay/internal/models"
)

type fakeRecorder struct {
	mu    sync.Mutex
	turns []uuid.UUID
	err   error
}

func (f *fakeRecorder) Record(_ context.Context, ev *models.TurnEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, ev.ID)
	return f.err
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []models.WSMessage
}

func (f *fakePublisher) Publish(_ context.Context, msg models.WSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func newEvent() models.TurnEvent {
	return models.TurnEvent{ID: uuid.New(), Kind: models.TurnConversation, UserText: "hi", Reply: "hello"}
}

func TestPool_ProcessesQueuedEventsOnStop(t *testing.T) {
	rec := &fakeRecorder{}
	pub := &fakePublisher{}
	p := NewPool(rec, pub, 3, 16)
	p.Start()

	for i := 0; i < 10; i++ {
		p.Submit(newEvent())
	}
	p.Stop()

	require.Len(t, rec.turns, 10)
	require.Len(t, pub.msgs, 10)
	for _, m := range pub.msgs {
		require.Equal(t, "turn_completed", m.Type)
		_, ok := m.Payload.(models.TurnEvent)
		require.True(t, ok)
	}
}

func TestPool_DropsWhenQueueFull(t *testing.T) {
	rec := &fakeRecorder{}
	p := NewPool(rec, nil, 1, 2)

	// not started yet, so nothing drains the queue
	p.Submit(newEvent())
	p.Submit(newEvent())
	p.Submit(newEvent())

	p.Start()
	p.Stop()
	require.Len(t, rec.turns, 2)
}

func TestPool_DropsAfterStop(t *testing.T) {
	rec := &fakeRecorder{}
	p := NewPool(rec, nil, 1, 4)
	p.Start()
	p.Stop()

	p.Submit(newEvent())
	require.Empty(t, rec.turns)
	require.Len(t, p.queue, 0)
}

func TestPool_RecorderErrorStillPublishes(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	pub := &fakePublisher{}
	p := NewPool(rec, pub, 1, 4)
	p.Start()
	p.Submit(newEvent())
	p.Stop()

	require.Len(t, rec.turns, 1)
	require.Len(t, pub.msgs, 1)
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(nil, nil, 0, 0)
	require.Equal(t, 1, p.workerCount)
	require.Equal(t, 64, cap(p.queue))

	p.Start()
	p.Submit(newEvent())
	p.Stop()
}
