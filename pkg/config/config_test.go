package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 128, cfg.MaxObjects)
	assert.Equal(t, uint32(5120), cfg.EventHeapSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
			valid:  true,
		},
		{
			name:   "too many objects",
			mutate: func(c *Config) { c.MaxObjects = 1024 },
			valid:  false,
		},
		{
			name:   "zero objects",
			mutate: func(c *Config) { c.MaxObjects = 0 },
			valid:  false,
		},
		{
			name:   "tasks above objects",
			mutate: func(c *Config) { c.MaxTasks = 200 },
			valid:  false,
		},
		{
			name:   "tiny event heap",
			mutate: func(c *Config) { c.EventHeapSize = 64 },
			valid:  false,
		},
		{
			name:   "zero seek budget",
			mutate: func(c *Config) { c.HashSeekTimes = 0 },
			valid:  false,
		},
		{
			name:   "depth too deep",
			mutate: func(c *Config) { c.HSMMaxDepth = 5 },
			valid:  false,
		},
		{
			name:   "depth too shallow",
			mutate: func(c *Config) { c.HSMMaxDepth = 1 },
			valid:  false,
		},
		{
			name:   "zero tick",
			mutate: func(c *Config) { c.TickIntervalMS = 0 },
			valid:  false,
		},
		{
			name:   "time events above swap-encoding limit",
			mutate: func(c *Config) { c.MaxTimeEvents = 256 },
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"max_objects: 64\nevent_heap_size: 2048\ntick_interval_ms: 5\n",
	), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxObjects)
	assert.Equal(t, uint32(2048), cfg.EventHeapSize)
	assert.Equal(t, 5*time.Millisecond, cfg.Tick())
	// Untouched knobs keep their defaults.
	assert.Equal(t, 32, cfg.MaxTasks)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_objects: 100000\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/ember.yaml")
	assert.Error(t, err)
}
