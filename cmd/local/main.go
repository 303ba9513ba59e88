package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/closetsync/internal/buildinfo"
	"github.com/dmitrijs2005/closetsync/internal/client"
	"github.com/dmitrijs2005/closetsync/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	app := client.NewApp(cfg)

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
