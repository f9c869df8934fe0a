package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed flock.schema.json
var configSchema string

// MaxFlockSize bounds every flock, from the config file or a resize.
// flock.schema.json carries the same maximum.
const MaxFlockSize = 100000

var (
	ErrInvalidFlockSize = errors.New("flock size must be between 1 and 100000")
	ErrInvalidBounds    = errors.New("world bounds must be positive")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

type Config struct {
	// Population
	FlockSize   int     `json:"flockSize"`
	SpawnRadius float64 `json:"spawnRadius"` // Radius of the starting ring

	// World dimensions. The world rectangle is derived from the window
	// aspect ratio, WorldBound being the half extent of the short side.
	WorldBound float64 `json:"worldBound"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`

	// Neighbour search
	Algorithm   string  `json:"algorithm"`   // quadtree, direct or grid
	TreePadding float64 `json:"treePadding"` // Tree region = world bounds scaled by this factor
	BucketSize  int     `json:"bucketSize"`
	MaxDepth    int     `json:"maxDepth"`
	Workers     int     `json:"workers"` // 0 means GOMAXPROCS

	// Host loop frequency for the headless and terminal viewers
	TickRate int `json:"tickRate"`

	Boids behavior.Params `json:"boids"`
}

func DefaultConfig() *Config {
	return &Config{
		FlockSize:   1024,
		SpawnRadius: 50,
		WorldBound:  450,
		Width:       800,
		Height:      450,
		Algorithm:   AlgorithmQuadtree,
		TreePadding: 1.5,
		BucketSize:  8,
		MaxDepth:    8,
		Workers:     0,
		TickRate:    60,
		Boids:       behavior.DefaultParams(),
	}
}

// LoadConfig reads a JSON file, validates it against the embedded schema and
// overlays it on DefaultConfig, so a file only needs the keys it changes.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig is LoadConfig for an in-memory document.
func ParseConfig(b []byte) (*Config, error) {
	sch, err := jsonschema.CompileString("flock.schema.json", configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkFlockSize(n int) error {
	if n <= 0 || n > MaxFlockSize {
		return fmt.Errorf("%w: got %d", ErrInvalidFlockSize, n)
	}
	return nil
}

// Validate rejects the configurations the simulation cannot start with.
func (c *Config) Validate() error {
	if err := checkFlockSize(c.FlockSize); err != nil {
		return err
	}
	if c.WorldBound <= 0 || c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: worldBound=%v width=%d height=%d", ErrInvalidBounds, c.WorldBound, c.Width, c.Height)
	}
	switch c.Algorithm {
	case AlgorithmQuadtree, AlgorithmDirect, AlgorithmGrid:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, c.Algorithm)
	}
	if c.TreePadding < 1 {
		return fmt.Errorf("%w: treePadding %v is below 1", ErrInvalidConfig, c.TreePadding)
	}
	if c.BucketSize < 1 || c.MaxDepth < 0 {
		return fmt.Errorf("%w: bucketSize=%d maxDepth=%d", ErrInvalidConfig, c.BucketSize, c.MaxDepth)
	}
	if c.Workers < 0 || c.TickRate <= 0 {
		return fmt.Errorf("%w: workers=%d tickRate=%d", ErrInvalidConfig, c.Workers, c.TickRate)
	}
	if c.SpawnRadius < 0 {
		return fmt.Errorf("%w: spawnRadius %v is negative", ErrInvalidConfig, c.SpawnRadius)
	}
	p := c.Boids
	if p.MaxSpeed <= 0 || p.MaxForce <= 0 || p.DisruptiveRadius < 0 || p.CohesiveRadius < 0 || p.Scale < 0 {
		return fmt.Errorf("%w: boid params %+v", ErrInvalidConfig, p)
	}
	return nil
}

// Bounds returns the world rectangle centered on the origin.
// The long side of the window gets WorldBound scaled by the aspect ratio.
func (c *Config) Bounds() geometry.Rectangle {
	aspect := float64(c.Width) / float64(c.Height)
	size := geometry.Vector2D{X: c.WorldBound, Y: c.WorldBound}
	if aspect >= 1 {
		size.X *= aspect
	} else {
		size.Y /= aspect
	}
	return geometry.Rectangle{Size: size}
}

// WorkerCount resolves Workers, 0 meaning one worker per CPU.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
