package main

import (
	"go.uber.org/zap"

	"forwardbot/internal/app"
)

func main() {
	log := zap.Must(zap.NewProduction())
	defer log.Sync()

	application, err := app.New()
	if err != nil {
		log.Fatal("Failed to start application", zap.Error(err))
	}

	if err := application.Run(); err != nil {
		log.Fatal("Application stopped with error", zap.Error(err))
	}
}
