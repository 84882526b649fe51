package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

type fakeMailer struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	sent     []string
	signal   chan struct{}
}

func newFakeMailer(failures int) *fakeMailer {
	return &fakeMailer{failures: failures, err: errors.New("smtp unavailable"), signal: make(chan struct{}, 100)}
}

func (f *fakeMailer) TemplateSend(template string, subjectVars core.MailerTemplateData, bodyVars core.MailerTemplateData, to string) error {
	f.mu.Lock()
	defer func() {
		f.mu.Unlock()
		f.signal <- struct{}{}
	}()

	f.calls++
	if f.calls <= f.failures {
		return f.err
	}

	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeMailer) TemplateRegister(name string, template core.MailerTemplate) error {
	return nil
}

func (f *fakeMailer) waitCalls(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.signal:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for mail attempt %d", i+1)
		}
	}
}

func (f *fakeMailer) snapshot() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]string(nil), f.sent...)
}

func newTestMailQueue(t *testing.T, mailer core.MailerService, backend mailQueueBackend, maxRetries int) *MailQueueDefault {
	t.Helper()

	q := &MailQueueDefault{
		mailer:     mailer,
		logger:     zap.NewNop(),
		backend:    backend,
		maxRetries: maxRetries,
		retryDelay: time.Millisecond,
	}
	require.NoError(t, backend.start(q.deliver))
	t.Cleanup(q.Stop)

	return q
}

func TestMailQueue_DeliversJob(t *testing.T) {
	mailer := newFakeMailer(0)
	q := newTestMailQueue(t, mailer, newMemoryMailBackend(2, 10), 3)

	require.NoError(t, q.Enqueue(context.Background(), core.MailJob{Template: core.MAILER_TPL_VERIFY_EMAIL, To: "a@example.com"}))
	mailer.waitCalls(t, 1)

	calls, sent := mailer.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"a@example.com"}, sent)
}

func TestMailQueue_RetriesThenSucceeds(t *testing.T) {
	mailer := newFakeMailer(2)
	q := newTestMailQueue(t, mailer, newMemoryMailBackend(1, 10), 3)

	require.NoError(t, q.Enqueue(context.Background(), core.MailJob{To: "a@example.com"}))
	mailer.waitCalls(t, 3)

	calls, sent := mailer.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"a@example.com"}, sent)
}

func TestMailQueue_DropsAfterMaxRetries(t *testing.T) {
	mailer := newFakeMailer(100)
	q := newTestMailQueue(t, mailer, newMemoryMailBackend(1, 10), 2)

	require.NoError(t, q.Enqueue(context.Background(), core.MailJob{To: "a@example.com"}))
	mailer.waitCalls(t, 3)

	q.pending.Wait()
	time.Sleep(20 * time.Millisecond)

	calls, sent := mailer.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, sent)
}

func TestMailQueue_DisabledMailerIsNotRetried(t *testing.T) {
	mailer := newFakeMailer(100)
	mailer.err = ErrMailerDisabled
	q := newTestMailQueue(t, mailer, newMemoryMailBackend(1, 10), 5)

	require.NoError(t, q.Enqueue(context.Background(), core.MailJob{To: "a@example.com"}))
	mailer.waitCalls(t, 1)

	q.pending.Wait()
	time.Sleep(20 * time.Millisecond)

	calls, _ := mailer.snapshot()
	assert.Equal(t, 1, calls)
}

func TestMailQueue_StopCancelsRetries(t *testing.T) {
	mailer := newFakeMailer(100)
	q := newTestMailQueue(t, mailer, newMemoryMailBackend(1, 10), 5)
	q.retryDelay = time.Hour

	require.NoError(t, q.Enqueue(context.Background(), core.MailJob{ID: "job-1", To: "a@example.com"}))
	mailer.waitCalls(t, 1)

	start := time.Now()
	q.Stop()
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, q.retries)

	q.deliver(core.MailJob{ID: "job-2", To: "b@example.com"})
	assert.Empty(t, q.retries)

	calls, sent := mailer.snapshot()
	assert.Equal(t, 2, calls)
	assert.Empty(t, sent)
}

func TestMemoryMailBackend_FullQueue(t *testing.T) {
	b := newMemoryMailBackend(1, 1)

	require.NoError(t, b.publish(core.MailJob{ID: "1"}))
	assert.ErrorIs(t, b.publish(core.MailJob{ID: "2"}), ErrMailQueueFull)

	b.stop()
	assert.ErrorIs(t, b.publish(core.MailJob{ID: "3"}), ErrMailQueueFull)
}

func TestMailQueue_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	backend, err := newRedisMailBackend(client, config.MailQueueConfig{Name: "mail", Workers: 1}, zap.NewNop())
	require.NoError(t, err)

	mailer := newFakeMailer(1)
	q := newTestMailQueue(t, mailer, backend, 3)

	require.NoError(t, q.Enqueue(context.Background(), core.MailJob{To: "a@example.com", BodyVars: map[string]any{"VerifyLink": "x"}}))
	mailer.waitCalls(t, 2)

	_, sent := mailer.snapshot()
	assert.Equal(t, []string{"a@example.com"}, sent)
}
