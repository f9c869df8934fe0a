package simulation

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestParseConfig_OverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"flockSize": 64, "algorithm": "direct", "boids": {"maxSpeed": 30}}`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.FlockSize != 64 || cfg.Algorithm != AlgorithmDirect {
		t.Errorf("explicit keys not applied: %+v", cfg)
	}
	if cfg.Boids.MaxSpeed != 30 {
		t.Errorf("Boids.MaxSpeed = %v; want 30", cfg.Boids.MaxSpeed)
	}
	if cfg.Boids.CohesiveRadius != def.Boids.CohesiveRadius || cfg.WorldBound != def.WorldBound {
		t.Errorf("missing keys lost their defaults: %+v", cfg)
	}
}

func TestParseConfig_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero flock", `{"flockSize": 0}`},
		{"flock too large", `{"flockSize": 100001}`},
		{"unknown key", `{"flock_size": 12}`},
		{"unknown algorithm", `{"algorithm": "kdtree"}`},
		{"negative world bound", `{"worldBound": -1}`},
		{"wrong type", `{"width": "wide"}`},
		{"unknown boid key", `{"boids": {"wings": 2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), "config validation failed") {
				t.Errorf("ParseConfig(%s) = %v; want a schema validation error", tt.doc, err)
			}
		})
	}

	if _, err := ParseConfig([]byte(`{"flockSize": `)); err == nil {
		t.Error("expected an error for truncated json")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero flock", func(c *Config) { c.FlockSize = 0 }, ErrInvalidFlockSize},
		{"negative flock", func(c *Config) { c.FlockSize = -5 }, ErrInvalidFlockSize},
		{"flock too large", func(c *Config) { c.FlockSize = MaxFlockSize + 1 }, ErrInvalidFlockSize},
		{"zero world bound", func(c *Config) { c.WorldBound = 0 }, ErrInvalidBounds},
		{"zero height", func(c *Config) { c.Height = 0 }, ErrInvalidBounds},
		{"unknown algorithm", func(c *Config) { c.Algorithm = "octree" }, ErrUnknownAlgorithm},
		{"padding below one", func(c *Config) { c.TreePadding = 0.5 }, ErrInvalidConfig},
		{"zero bucket", func(c *Config) { c.BucketSize = 0 }, ErrInvalidConfig},
		{"negative workers", func(c *Config) { c.Workers = -1 }, ErrInvalidConfig},
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }, ErrInvalidConfig},
		{"zero max speed", func(c *Config) { c.Boids.MaxSpeed = 0 }, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flock.json")
	if err := os.WriteFile(path, []byte(`{"flockSize": 200, "width": 640, "height": 640}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FlockSize != 200 {
		t.Errorf("FlockSize = %d; want 200", cfg.FlockSize)
	}
	if b := cfg.Bounds(); b.Size.X != 450 || b.Size.Y != 450 {
		t.Errorf("square window bounds = %v; want half size 450x450", b)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig(missing) = %v; want os.ErrNotExist", err)
	}
}

func TestConfig_Bounds(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantX, wantY  float64
	}{
		{"landscape", 800, 450, 800, 450},
		{"square", 500, 500, 450, 450},
		{"portrait", 450, 800, 450, 800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Width, cfg.Height = tt.width, tt.height
			b := cfg.Bounds()
			if b.Center.X != 0 || b.Center.Y != 0 {
				t.Errorf("bounds not centered on the origin: %v", b)
			}
			if math.Abs(b.Size.X-tt.wantX) > 1e-9 || math.Abs(b.Size.Y-tt.wantY) > 1e-9 {
				t.Errorf("Bounds() size = %v; want (%v, %v)", b.Size, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestConfig_WorkerCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	if got := cfg.WorkerCount(); got != 3 {
		t.Errorf("WorkerCount() = %d; want 3", got)
	}
	cfg.Workers = 0
	if got := cfg.WorkerCount(); got < 1 {
		t.Errorf("WorkerCount() = %d; want at least 1", got)
	}
}

func TestLoadConfig_Shipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "config", "flock.json"))
	if err != nil {
		t.Fatalf("config/flock.json: %v", err)
	}
	if cfg.Boids.MaxSpeed != DefaultConfig().Boids.MaxSpeed {
		t.Errorf("keys missing from the file should keep their default, maxSpeed = %v", cfg.Boids.MaxSpeed)
	}
}

func TestParseConfig_MaxFlockSize(t *testing.T) {
	doc := fmt.Sprintf(`{"flockSize": %d}`, MaxFlockSize)
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("ParseConfig(%s): %v", doc, err)
	}
	if cfg.FlockSize != MaxFlockSize {
		t.Errorf("FlockSize = %d; want %d", cfg.FlockSize, MaxFlockSize)
	}
}
