package accountscmd

import (
	"flag"
	"os"

	"go.lumeweb.com/accounts"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

func Main() {
	var configFile string

	flag.StringVar(&configFile, "config", "", "Path to the config file")
	flag.Parse()

	var cfg *config.ManagerDefault
	var err error

	if configFile != "" {
		cfg, err = config.NewManagerWithFile(configFile)
	} else {
		cfg, err = config.NewManager()
	}

	if err != nil {
		core.NewLogger(nil).Fatal("Failed to load config", zap.Error(err))
	}

	logger := core.NewLogger(cfg)

	err = cfg.Init()
	if err != nil {
		logger.Fatal("Failed to initialize config", zap.Error(err))
	}

	logger.SetLevelFromConfig()

	ctx, err := core.NewContext(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create context", zap.Error(err))
	}

	accounts.NewActiveApp(ctx)

	err = accounts.Init()
	if err != nil {
		logger.Error("Failed to initialize accounts", zap.Error(err))
		os.Exit(core.ExitCodeFailedStartup)
	}

	err = accounts.Start()
	if err != nil {
		logger.Error("Failed to start accounts", zap.Error(err))
		os.Exit(core.ExitCodeFailedStartup)
	}

	trapSignals()

	err = accounts.Serve()
	if err != nil {
		logger.Error("Failed to serve accounts", zap.Error(err))
		os.Exit(core.ExitCodeFailedStartup)
	}
}
