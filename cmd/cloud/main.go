package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/closetsync/internal/buildinfo"
	"github.com/dmitrijs2005/closetsync/internal/server"
	"github.com/dmitrijs2005/closetsync/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	app := server.NewApp(cfg)

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
