package main

import (
	"github.com/seekwell/atlas/internal/server"
	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/logger"
	"github.com/seekwell/atlas/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
