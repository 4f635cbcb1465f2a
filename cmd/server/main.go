package main

import (
	"fmt"
	"os"

	"github.com/docgraph/docgraph/internal/app"
	"github.com/docgraph/docgraph/internal/config"
	"github.com/docgraph/docgraph/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("DOCGRAPH_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app.InitLogger(cfg)

	server.Init(cfg)
}
