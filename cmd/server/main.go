package main

import (
	"github.com/assemblage/backend/internal/server"
	"github.com/assemblage/backend/internal/util"
	"github.com/assemblage/backend/pkg/logger"
	"github.com/assemblage/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	server.Init()
}
