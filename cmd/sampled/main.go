package main

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lineworks/linesampler/config"
	"github.com/lineworks/linesampler/linepool"
	"github.com/lineworks/linesampler/sampled"
)

func main() {
	log.Printf("starting sampled")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, _ := log.ParseLevel(cfg.LogLevel) // validated by config.Load
	log.SetLevel(level)

	pool := linepool.New()
	srv, err := sampled.New(cfg, pool)
	if err != nil {
		log.Fatalf("sampled.New: %v", err)
	}

	log.Printf("listening on :%d", cfg.Port)
	if err := sampled.RunWithSignals(srv.Server, 5*time.Second); err != nil {
		log.Fatalf("RunWithSignals: %v", err)
	}
}
