package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emberos/ember/pkg/mask"
)

// Config holds the kernel sizing knobs. Every table in the kernel is fixed
// at construction; a workload that outgrows a table is a sizing error.
type Config struct {
	// MaxObjects is the registry capacity: topics, tasks and store keys
	// all share it. Must not exceed mask.Slots.
	MaxObjects int `yaml:"max_objects"`

	// MaxTasks bounds the number of registered tasks.
	MaxTasks int `yaml:"max_tasks"`

	// HashSeekTimes is the probe budget of the registry: how many ±i
	// rounds a lookup tries before giving up.
	HashSeekTimes int `yaml:"hash_seek_times"`

	// EventHeapSize is the byte budget of the event-record heap.
	EventHeapSize uint32 `yaml:"event_heap_size"`

	// StoreHeapSize is the byte budget of the data-store heap.
	StoreHeapSize uint32 `yaml:"store_heap_size"`

	// MaxTimeEvents bounds the armed time-event table.
	MaxTimeEvents int `yaml:"max_time_events"`

	// TickIntervalMS is how often, in milliseconds, the system timer
	// polls the time-event table.
	TickIntervalMS int `yaml:"tick_interval_ms"`

	// HSMMaxDepth is the state nesting bound (2 to 4) checked by Validate.
	// actor.NewSM takes its depth as an argument and does not read this
	// field.
	HSMMaxDepth int `yaml:"hsm_max_depth"`
}

// Default returns the stock sizing: 128 registry slots, 32 tasks, a 5120
// byte event heap and a 4-level state machine nest.
func Default() Config {
	return Config{
		MaxObjects:     128,
		MaxTasks:       32,
		HashSeekTimes:  5,
		EventHeapSize:  5120,
		StoreHeapSize:  5120,
		MaxTimeEvents:  32,
		TickIntervalMS: 1,
		HSMMaxDepth:    4,
	}
}

// Tick returns the timer poll interval as a duration.
func (c Config) Tick() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the sizing constraints.
func (c Config) Validate() error {
	if c.MaxObjects <= 0 || c.MaxObjects > mask.Slots {
		return fmt.Errorf("max_objects must be in 1..%d, got %d", mask.Slots, c.MaxObjects)
	}
	if c.MaxTasks <= 0 || c.MaxTasks > c.MaxObjects {
		return fmt.Errorf("max_tasks must be in 1..max_objects, got %d", c.MaxTasks)
	}
	if c.HashSeekTimes <= 0 {
		return fmt.Errorf("hash_seek_times must be positive, got %d", c.HashSeekTimes)
	}
	if c.EventHeapSize < 128 {
		return fmt.Errorf("event_heap_size must be at least 128 bytes, got %d", c.EventHeapSize)
	}
	if c.StoreHeapSize < 128 {
		return fmt.Errorf("store_heap_size must be at least 128 bytes, got %d", c.StoreHeapSize)
	}
	if c.MaxTimeEvents <= 0 || c.MaxTimeEvents > 255 {
		return fmt.Errorf("max_time_events must be in 1..255, got %d", c.MaxTimeEvents)
	}
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive, got %d", c.TickIntervalMS)
	}
	if c.HSMMaxDepth < 2 || c.HSMMaxDepth > 4 {
		return fmt.Errorf("hsm_max_depth must be in 2..4, got %d", c.HSMMaxDepth)
	}
	return nil
}
