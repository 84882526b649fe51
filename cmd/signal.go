package accountscmd

import (
	"os"
	"os/signal"
	"syscall"

	"go.lumeweb.com/accounts"
	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

func exitProcessFromSignal(sigName string) {
	ctx := accounts.Context()
	logger := ctx.Logger().With(zap.String("signal", sigName))
	accounts.Shutdown(accounts.ActiveApp(), logger)
}

func trapSignals() {
	ctx := accounts.Context()
	logger := ctx.Logger()
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

		for sig := range sigchan {
			switch sig {
			case syscall.SIGQUIT:
				logger.Info("quitting process immediately", zap.String("signal", "SIGQUIT"))
				os.Exit(core.ExitCodeForceQuit)

			case os.Interrupt:
				logger.Info("shutting down, then terminating", zap.String("signal", "SIGINT"))
				exitProcessFromSignal("SIGINT")

			case syscall.SIGTERM:
				logger.Info("shutting down, then terminating", zap.String("signal", "SIGTERM"))
				exitProcessFromSignal("SIGTERM")

			case syscall.SIGHUP:
				// ignore; this signal is sometimes sent outside of the user's control
				logger.Info("not implemented", zap.String("signal", "SIGHUP"))
			}
		}
	}()
}
