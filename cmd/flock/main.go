package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/viewer"
)

func main() {
	configPath := flag.String("config", "", "path of a JSON flock configuration")
	flag.Parse()

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configPath); err != nil {
			log.Fatalf("💥 %v", err)
		}
	}

	ctx := context.Background()
	logger := golog.New(golog.InfoLevel, os.Stdout)
	engine, err := simulation.NewEngine(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("💥 %v", err)
	}
	defer engine.Stop(ctx)

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("Flock: boids on a quadtree")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(viewer.NewGame(ctx, cfg, engine, logger)); err != nil {
		log.Fatal(err)
	}
}
