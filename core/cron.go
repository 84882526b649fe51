package core

import (
	"github.com/go-co-op/gocron/v2"
)

const CRON_SERVICE = "cron"

type CronTaskFunction func(Context) error

type CronService interface {
	// RegisterTask schedules a recurring task under a unique name.
	RegisterTask(name string, def gocron.JobDefinition, task CronTaskFunction) error

	Start() error
	Service
}
