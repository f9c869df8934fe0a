package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/internal/terminal"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/simulation"
)

func main() {
	configPath := flag.String("config", "", "path of a JSON flock configuration")
	flag.Parse()

	cfg := simulation.DefaultConfig()
	// A terminal holds far fewer cells than a window has pixels
	cfg.FlockSize = 256
	if *configPath != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configPath); err != nil {
			log.Fatalf("💥 %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The screen owns stdout, the actor system stays quiet
	engine, err := simulation.NewEngine(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("💥 %v", err)
	}
	defer engine.Stop(context.Background())

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("💥 %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("💥 %v", err)
	}
	err = terminal.Run(ctx, screen, engine, cfg.TickRate)
	screen.Fini()
	if err != nil {
		log.Fatalf("💥 %v", err)
	}
}
