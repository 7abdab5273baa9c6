package main

import (
	"github.com/AlexxIT/neolink/internal/api"
	"github.com/AlexxIT/neolink/internal/api/ws"
	"github.com/AlexxIT/neolink/internal/app"
	"github.com/AlexxIT/neolink/internal/bc"
	"github.com/AlexxIT/neolink/pkg/shell"
)

func main() {
	app.Init() // init config and logs
	api.Init() // init HTTP API server
	ws.Init()  // init WS API endpoint
	bc.Init()  // connect to cameras

	sig := shell.RunUntilSignal()
	app.Logger.Info().Str("signal", sig.String()).Msg("exit")

	bc.Stop()
}
