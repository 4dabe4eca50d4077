package main

import (
	"os"

	"github.com/DRSN-tech/admin-backend/internal/app"
	config "github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

func main() {
	lc := config.LoadLogCfg()
	log := logger.NewSlogLogger(logger.WithLevel(lc.Level), logger.WithFile(lc.File))

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
