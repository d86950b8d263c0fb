package main

import (
	"os"

	"github.com/assemblage/backend/internal/util"
	"github.com/assemblage/backend/pkg/assemblage"
	"github.com/assemblage/backend/pkg/logger"
	"github.com/assemblage/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	root := newRootCmd(func() (detector, error) {
		svc, _, err := assemblage.NewServiceFromEnv()
		return svc, err
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
