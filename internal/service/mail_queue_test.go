package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySender struct {
	mu       sync.Mutex
	failures int
	attempts int
	sent     []string
}

func (s *flakySender) Send(ctx context.Context, to, toName, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, to)
	return nil
}

func (s *flakySender) snapshot() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts, append([]string(nil), s.sent...)
}

func TestMailQueue_RetriesUntilDelivered(t *testing.T) {
	sender := &flakySender{failures: 2}
	q := NewMailQueue(sender, 1, 8, 3)
	q.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	require.NoError(t, q.Send(ctx, "ana@example.com", "Ana", "Hello", "Body"))

	assert.Eventually(t, func() bool {
		_, sent := sender.snapshot()
		return len(sent) == 1
	}, 2*time.Second, 5*time.Millisecond)

	attempts, sent := sender.snapshot()
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{"ana@example.com"}, sent)

	cancel()
	q.Wait()
}

func TestMailQueue_GivesUpAfterMaxRetries(t *testing.T) {
	sender := &flakySender{failures: 100}
	q := NewMailQueue(sender, 1, 8, 1)
	q.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	require.NoError(t, q.Send(ctx, "bob@example.com", "Bob", "Hello", "Body"))

	assert.Eventually(t, func() bool {
		attempts, _ := sender.snapshot()
		return attempts == 2
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	attempts, sent := sender.snapshot()
	assert.Equal(t, 2, attempts)
	assert.Empty(t, sent)
}

func TestMailQueue_FullQueue(t *testing.T) {
	q := NewMailQueue(&flakySender{}, 1, 1, 0)

	// Workers not started, so the single slot stays occupied.
	require.NoError(t, q.Send(context.Background(), "a@example.com", "", "s", "b"))
	err := q.Send(context.Background(), "b@example.com", "", "s", "b")
	assert.EqualError(t, err, "email queue is full")
}
