// Package config loads the user configuration of the voxstream tools and turns
// it into a scheduler.Config.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxstream/internal/scheduler"
	"voxstream/internal/store"
	"voxstream/internal/world"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Storage backends accepted in Storage.Backend.
const (
	BackendNone    = "none"
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendSQLite  = "sqlite"
)

// UserConfig is the serialisable configuration. It is read from TOML or YAML
// and converted with Config.
type UserConfig struct {
	Log struct {
		// Level is one of debug, info, warn or error.
		Level string `toml:"level" yaml:"level"`
	} `toml:"log" yaml:"log"`
	Scheduler struct {
		ChunkSize int `toml:"chunk_size" yaml:"chunk_size"`
		// Workers and QueueSize size the extraction pool; zero picks defaults.
		Workers   int `toml:"workers" yaml:"workers"`
		QueueSize int `toml:"queue_size" yaml:"queue_size"`
		// LockTimeout is a Go duration string such as "5s".
		LockTimeout   string `toml:"lock_timeout" yaml:"lock_timeout"`
		EvictRadius   int    `toml:"evict_radius" yaml:"evict_radius"`
		EvictInterval string `toml:"evict_interval" yaml:"evict_interval"`
		// Mesher is cubic or greedy.
		Mesher string `toml:"mesher" yaml:"mesher"`
	} `toml:"scheduler" yaml:"scheduler"`
	Storage struct {
		// Backend is none, memory, leveldb or sqlite.
		Backend string `toml:"backend" yaml:"backend"`
		// Path is the database directory or file for persistent backends.
		Path string `toml:"path" yaml:"path"`
	} `toml:"storage" yaml:"storage"`
	World World `toml:"world" yaml:"world"`
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Log.Level = "info"
	c.Scheduler.ChunkSize = 32
	c.Scheduler.LockTimeout = "5s"
	c.Scheduler.EvictRadius = 8
	c.Scheduler.EvictInterval = "2s"
	c.Scheduler.Mesher = "cubic"
	c.Storage.Backend = BackendLevelDB
	c.Storage.Path = "world"
	c.World = DefaultWorld()
	return c
}

// Load reads path into a copy of DefaultConfig. The format follows the file
// extension: .yaml and .yml are YAML, anything else TOML. A missing file is
// created with the defaults.
func Load(path string) (UserConfig, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, Save(path, c)
	}
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if isYAML(path) {
		err = yaml.Unmarshal(b, &c)
	} else {
		err = toml.Unmarshal(b, &c)
	}
	if err != nil {
		return c, fmt.Errorf("decode config %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path in the format matching its extension.
func Save(path string, c UserConfig) error {
	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(c)
	} else {
		b, err = toml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Logger returns a text logger writing to w at the configured level.
func (uc UserConfig) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if s := strings.TrimSpace(uc.Log.Level); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// Config converts uc to a scheduler.Config. The storage backend is opened
// here and owned by the scheduler, which closes it on Destroy.
func (uc UserConfig) Config(log *slog.Logger) (scheduler.Config, error) {
	conf := scheduler.Config{
		Log:         log,
		ChunkSize:   uc.Scheduler.ChunkSize,
		Seed:        uc.World.Seed,
		Context:     uc.World.Context(),
		Workers:     uc.Scheduler.Workers,
		QueueSize:   uc.Scheduler.QueueSize,
		EvictRadius: uc.Scheduler.EvictRadius,
	}
	var err error
	if conf.LockTimeout, err = duration(uc.Scheduler.LockTimeout); err != nil {
		return conf, fmt.Errorf("lock timeout: %w", err)
	}
	if conf.EvictInterval, err = duration(uc.Scheduler.EvictInterval); err != nil {
		return conf, fmt.Errorf("evict interval: %w", err)
	}
	if conf.Extractor, err = mesher(uc.Scheduler.Mesher); err != nil {
		return conf, err
	}
	if conf.Storage, err = uc.OpenStorage(); err != nil {
		return conf, err
	}
	return conf, nil
}

// OpenStorage opens the configured storage backend. A nil Storage with a nil
// error means chunks are never persisted.
func (uc UserConfig) OpenStorage() (world.Storage, error) {
	path := uc.Storage.Path
	switch strings.ToLower(strings.TrimSpace(uc.Storage.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return store.NewMemory(), nil
	case BackendLevelDB:
		if path == "" {
			return nil, fmt.Errorf("storage: leveldb needs a path")
		}
		db, err := store.OpenLevelDB(path)
		if err != nil {
			return nil, fmt.Errorf("create world storage: %w", err)
		}
		return db, nil
	case BackendSQLite:
		if path == "" {
			return nil, fmt.Errorf("storage: sqlite needs a path")
		}
		db, err := store.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("create world storage: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", uc.Storage.Backend)
	}
}

func duration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
