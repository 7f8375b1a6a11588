package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/coursetrack-api/internal/bootstrap"
	"github.com/noah-isme/coursetrack-api/internal/config"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	connect := func() (*bootstrap.Container, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return bootstrap.Build(cfg, logger)
	}

	if err := newRootCmd(connect).Execute(); err != nil {
		os.Exit(1)
	}
}
