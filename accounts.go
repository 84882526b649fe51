package accounts

import (
	"errors"
	"os"
	"sync"

	_ "go.lumeweb.com/accounts/api/account"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db"
	_ "go.lumeweb.com/accounts/service"
	"go.uber.org/zap"
)

var (
	activeApp App
)

type App interface {
	Init() error
	Start() error
	Stop() error
	Context() core.Context
	Serve() error
}

type AppDefault struct {
	ctx   core.Context
	ctxMu sync.RWMutex
}

func NewApp(ctx core.Context) *AppDefault {
	return &AppDefault{
		ctx: ctx,
	}
}

// Init opens the database, builds every registered service and replaces the
// context with one carrying them.
func (a *AppDefault) Init() error {
	ctx := a.Context()

	ctx.Logger().Info("Initializing accounts")

	_, ctxOpts, err := db.NewDatabase(ctx)
	if err != nil {
		ctx.Logger().Error("Error opening database", zap.Error(err))
		return err
	}

	opts, err := a.initServices(ctx)
	if err != nil {
		return err
	}
	ctxOpts = append(ctxOpts, opts...)

	ctx, err = core.NewContext(ctx.Config(), ctx.Logger(), ctxOpts...)
	if err != nil {
		ctx.Logger().Error("Error creating context", zap.Error(err))
		return err
	}

	a.SetContext(ctx)

	return nil
}

func (a *AppDefault) Start() error {
	ctx := a.Context()
	ctx.Logger().Info("Starting accounts")

	if err := a.startStartupFuncs(ctx); err != nil {
		return err
	}

	if err := a.startCron(ctx); err != nil {
		return err
	}

	return a.startHTTP(ctx)
}

func (a *AppDefault) Stop() error {
	ctx := a.Context()
	ctx.Logger().Info("Stopping accounts")

	return a.runExitFuncs(ctx)
}

func (a *AppDefault) Serve() error {
	ctx := a.Context()
	ctx.Logger().Info("Serving accounts")

	httpSvc, ok := ctx.Service(core.HTTP_SERVICE).(core.HTTPService)
	if !ok {
		ctx.Logger().Error("HTTP service not found")
		return errors.New("http service not found")
	}

	return httpSvc.Serve()
}

func (a *AppDefault) initServices(ctx core.Context) (ctxOpts []core.ContextBuilderOption, err error) {
	for _, svcInfo := range core.GetServices() {
		svc, opts, err := svcInfo.Factory()
		if err != nil {
			ctx.Logger().Error("Error creating service", zap.String("service", svcInfo.ID), zap.Error(err))
			return nil, err
		}

		ctxOpts = append(ctxOpts, opts...)
		ctxOpts = append(ctxOpts, core.ContextWithService(svcInfo.ID, svc))
	}

	return ctxOpts, nil
}

func (a *AppDefault) startStartupFuncs(ctx core.Context) error {
	for _, startupFunc := range ctx.StartupFuncs() {
		if err := startupFunc(ctx); err != nil {
			ctx.Logger().Error("Error starting accounts", zap.Error(err))
			return err
		}
	}

	return nil
}

func (a *AppDefault) startCron(ctx core.Context) error {
	cronSvc, ok := ctx.Service(core.CRON_SERVICE).(core.CronService)
	if !ok {
		ctx.Logger().Error("Cron service not found")
		return errors.New("cron service not found")
	}

	return cronSvc.Start()
}

func (a *AppDefault) startHTTP(ctx core.Context) error {
	httpSvc, ok := ctx.Service(core.HTTP_SERVICE).(core.HTTPService)
	if !ok {
		ctx.Logger().Error("HTTP service not found")
		return errors.New("http service not found")
	}

	return httpSvc.Init()
}

func (a *AppDefault) runExitFuncs(ctx core.Context) error {
	var errs []error

	// Exit funcs run in reverse so dependents stop before what they depend on.
	funcs := ctx.ExitFuncs()
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			ctx.Logger().Error("Error stopping accounts", zap.Error(err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (a *AppDefault) Context() core.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()
	return a.ctx
}

func (a *AppDefault) SetContext(ctx core.Context) {
	a.ctxMu.Lock()
	defer a.ctxMu.Unlock()
	a.ctx = ctx
}

func NewActiveApp(ctx core.Context) {
	activeApp = NewApp(ctx)
}

func Init() error {
	return activeApp.Init()
}

func Start() error {
	return activeApp.Start()
}

func Stop() error {
	return activeApp.Stop()
}

func Serve() error {
	return activeApp.Serve()
}

func Context() core.Context {
	return activeApp.Context()
}

func ActiveApp() App {
	return activeApp
}

// Shutdown cancels the app context, runs the exit funcs and exits the process.
func Shutdown(app App, logger *zap.Logger) {
	ctx := app.Context()

	if logger == nil {
		logger = ctx.Logger().Logger
	}

	ctx.Cancel()

	<-ctx.Done()

	if err := app.Stop(); err != nil {
		logger.Error("Failed to stop accounts", zap.Error(err))
		ctx.SetExitCode(core.ExitCodeFailedQuit)
	}

	os.Exit(ctx.ExitCode())
}
