package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

var ErrMailQueueFull = errors.New("mail queue is full")

const defaultMailRetryDelay = 2 * time.Second

var _ core.MailQueue = (*MailQueueDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.MAIL_QUEUE_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewMailQueue()
		},
		Depends: []string{core.MAILER_SERVICE},
	})
}

type mailQueueBackend interface {
	publish(job core.MailJob) error
	start(handler func(core.MailJob)) error
	stop()
}

// MailQueueDefault delivers mail in the background. Failed jobs are retried
// up to the configured limit and then dropped.
type MailQueueDefault struct {
	mailer     core.MailerService
	logger     *zap.Logger
	backend    mailQueueBackend
	maxRetries int
	retryDelay time.Duration

	mu      sync.Mutex
	stopped bool
	retries map[string]*time.Timer
	pending sync.WaitGroup
}

func NewMailQueue() (*MailQueueDefault, []core.ContextBuilderOption, error) {
	queue := &MailQueueDefault{retryDelay: defaultMailRetryDelay}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			cfg := ctx.Config().Config().Core
			queue.mailer = core.GetService[core.MailerService](ctx, core.MAILER_SERVICE)
			queue.logger = ctx.ServiceLogger(queue)
			queue.maxRetries = cfg.MailQueue.MaxRetries

			backend, err := newMailQueueBackend(cfg, queue.logger)
			if err != nil {
				return err
			}
			queue.backend = backend

			return queue.backend.start(queue.deliver)
		}),
		core.ContextWithExitFunc(func(ctx core.Context) error {
			queue.Stop()
			return nil
		}),
	)

	return queue, opts, nil
}

func newMailQueueBackend(cfg config.CoreConfig, logger *zap.Logger) (mailQueueBackend, error) {
	switch cfg.MailQueue.Backend {
	case config.MailQueueBackendRedis:
		redisCfg := cfg.Clustered.Redis
		return newRedisMailBackend(redisCfg.Client(), cfg.MailQueue, logger)
	default:
		return newMemoryMailBackend(cfg.MailQueue.Workers, cfg.MailQueue.BufferSize), nil
	}
}

func (m *MailQueueDefault) ID() string {
	return core.MAIL_QUEUE_SERVICE
}

func (m *MailQueueDefault) Enqueue(_ context.Context, job core.MailJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	return m.backend.publish(job)
}

// Stop cancels scheduled retries, shuts the workers down and waits for any
// retry that was already firing. Jobs still waiting on a retry are dropped.
func (m *MailQueueDefault) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true

	for id, timer := range m.retries {
		if timer.Stop() {
			m.pending.Done()
			m.logger.Warn("dropping mail, queue stopped", zap.String("job", id))
		}
		delete(m.retries, id)
	}
	m.mu.Unlock()

	if m.backend != nil {
		m.backend.stop()
	}

	m.pending.Wait()
}

func (m *MailQueueDefault) deliver(job core.MailJob) {
	err := m.mailer.TemplateSend(job.Template, job.SubjectVars, job.BodyVars, job.To)
	if err == nil {
		m.logger.Debug("mail sent", zap.String("job", job.ID), zap.String("template", job.Template))
		return
	}

	if errors.Is(err, ErrMailerDisabled) {
		m.logger.Warn("dropping mail, mailer disabled", zap.String("job", job.ID), zap.String("template", job.Template))
		return
	}

	if job.Attempts >= m.maxRetries {
		m.logger.Error("dropping mail after retries", zap.String("job", job.ID), zap.Int("attempts", job.Attempts+1), zap.Error(err))
		return
	}

	m.scheduleRetry(job, err)
}

func (m *MailQueueDefault) scheduleRetry(job core.MailJob, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		m.logger.Warn("dropping mail, queue stopped", zap.String("job", job.ID), zap.Error(cause))
		return
	}

	if m.retries == nil {
		m.retries = make(map[string]*time.Timer)
	}

	job.Attempts++
	m.logger.Warn("mail delivery failed, retrying", zap.String("job", job.ID), zap.Int("attempt", job.Attempts), zap.Error(cause))

	m.pending.Add(1)
	m.retries[job.ID] = time.AfterFunc(m.retryDelay*time.Duration(job.Attempts), func() {
		defer m.pending.Done()

		m.mu.Lock()
		delete(m.retries, job.ID)
		stopped := m.stopped
		m.mu.Unlock()

		if stopped {
			m.logger.Warn("dropping mail, queue stopped", zap.String("job", job.ID))
			return
		}

		if err := m.backend.publish(job); err != nil {
			m.logger.Error("dropping mail, requeue failed", zap.String("job", job.ID), zap.Error(err))
		}
	})
}

type memoryMailBackend struct {
	jobs    chan core.MailJob
	done    chan struct{}
	workers int
	wg      sync.WaitGroup
	once    sync.Once
}

func newMemoryMailBackend(workers int, buffer int) *memoryMailBackend {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}

	return &memoryMailBackend{
		jobs:    make(chan core.MailJob, buffer),
		done:    make(chan struct{}),
		workers: workers,
	}
}

func (b *memoryMailBackend) publish(job core.MailJob) error {
	select {
	case <-b.done:
		return ErrMailQueueFull
	default:
	}

	select {
	case b.jobs <- job:
		return nil
	default:
		return ErrMailQueueFull
	}
}

func (b *memoryMailBackend) start(handler func(core.MailJob)) error {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for {
				select {
				case <-b.done:
					return
				case job := <-b.jobs:
					handler(job)
				}
			}
		}()
	}

	return nil
}

func (b *memoryMailBackend) stop() {
	b.once.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
}

type redisMailBackend struct {
	conn    rmq.Connection
	queue   rmq.Queue
	workers int
	logger  *zap.Logger
}

func newRedisMailBackend(client *redis.Client, cfg config.MailQueueConfig, logger *zap.Logger) (*redisMailBackend, error) {
	errChan := make(chan error, 10)
	go func() {
		for err := range errChan {
			logger.Error("mail queue redis error", zap.Error(err))
		}
	}()

	conn, err := rmq.OpenConnectionWithRedisClient("accounts-mail", client, errChan)
	if err != nil {
		return nil, err
	}

	queue, err := conn.OpenQueue(cfg.Name)
	if err != nil {
		return nil, err
	}

	return &redisMailBackend{
		conn:    conn,
		queue:   queue,
		workers: cfg.Workers,
		logger:  logger,
	}, nil
}

func (b *redisMailBackend) publish(job core.MailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return b.queue.PublishBytes(payload)
}

func (b *redisMailBackend) start(handler func(core.MailJob)) error {
	if err := b.queue.StartConsuming(int64(b.workers*2), 100*time.Millisecond); err != nil {
		return err
	}

	for i := 0; i < b.workers; i++ {
		_, err := b.queue.AddConsumerFunc("mail", func(delivery rmq.Delivery) {
			var job core.MailJob
			if err := json.Unmarshal([]byte(delivery.Payload()), &job); err != nil {
				b.logger.Error("rejecting malformed mail job", zap.Error(err))
				if err := delivery.Reject(); err != nil {
					b.logger.Error("failed to reject mail job", zap.Error(err))
				}
				return
			}

			handler(job)

			if err := delivery.Ack(); err != nil {
				b.logger.Error("failed to ack mail job", zap.String("job", job.ID), zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (b *redisMailBackend) stop() {
	<-b.conn.StopAllConsuming()
}
