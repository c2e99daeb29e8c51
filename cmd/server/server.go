package main

import (
	"context"
	"log"

	"github.com/rcbilson/dailymenu/config"
	"github.com/rcbilson/dailymenu/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	p, err := pipeline.FromConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal("error initializing menu pipeline:", err)
	}
	defer p.Close()

	handler(p, cfg.Port, cfg.AllowedOrigins)
}
