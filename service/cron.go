package service

import (
	"fmt"
	"sync"
	"time"

	redislock "github.com/go-co-op/gocron-redis-lock/v2"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

var _ core.CronService = (*CronServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.CRON_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewCronService()
		},
	})
}

type CronServiceDefault struct {
	ctx       core.Context
	logger    *zap.Logger
	scheduler gocron.Scheduler
	enabled   bool
	tasks     sync.Map
}

func NewCronService() (*CronServiceDefault, []core.ContextBuilderOption, error) {
	cron := &CronServiceDefault{}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			cron.ctx = ctx
			cron.logger = ctx.ServiceLogger(cron)
			cron.enabled = ctx.Config().Config().Core.Cron.Enabled

			if !cron.enabled {
				cron.logger.Info("cron is disabled, background tasks will not run")
				return nil
			}

			scheduler, err := newScheduler(ctx.Config().Config().Core)
			if err != nil {
				return err
			}

			cron.scheduler = scheduler

			return nil
		}),
		core.ContextWithExitFunc(func(ctx core.Context) error {
			return cron.Stop()
		}),
	)

	return cron, opts, nil
}

func newScheduler(cfg config.CoreConfig) (gocron.Scheduler, error) {
	if cfg.Clustered.Enabled {
		locker, err := redislock.NewRedisLocker(cfg.Clustered.Redis.Client(), redislock.WithTries(1), redislock.WithExpiry(time.Hour))
		if err != nil {
			return nil, err
		}

		return gocron.NewScheduler(gocron.WithDistributedLocker(locker))
	}

	return gocron.NewScheduler()
}

func (c *CronServiceDefault) ID() string {
	return core.CRON_SERVICE
}

func (c *CronServiceDefault) RegisterTask(name string, def gocron.JobDefinition, task core.CronTaskFunction) error {
	if _, loaded := c.tasks.LoadOrStore(name, task); loaded {
		return fmt.Errorf("cron task %s already registered", name)
	}

	if c.scheduler == nil {
		return nil
	}

	listener := func(jobID uuid.UUID, jobName string, err error) {
		c.logger.Error("cron task failed", zap.String("task", jobName), zap.String("id", jobID.String()), zap.Error(err))
	}

	_, err := c.scheduler.NewJob(def, gocron.NewTask(func() error {
		return task(c.ctx)
	}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(gocron.AfterJobRunsWithError(listener)),
	)

	return err
}

func (c *CronServiceDefault) Start() error {
	if c.scheduler == nil {
		return nil
	}

	c.scheduler.Start()

	return nil
}

func (c *CronServiceDefault) Stop() error {
	if c.scheduler == nil {
		return nil
	}

	return c.scheduler.Shutdown()
}
