package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/joshuapare/cowchunk/chunk"
	"github.com/joshuapare/cowchunk/internal/logger"
	"github.com/spf13/pflag"
)

// Config is the cowctl configuration file.
//
//	chunk_size = 65536
//	prefault = false
//
//	[log]
//	enabled = true
//	level = "debug"
//	json = false
//	dir = ""
type Config struct {
	ChunkSize int       `toml:"chunk_size"`
	Prefault  bool      `toml:"prefault"`
	Log       LogConfig `toml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	JSON    bool   `toml:"json"`
	Dir     string `toml:"dir"`
}

func defaultConfig() Config {
	return Config{
		ChunkSize: chunk.DefaultChunkSize,
		Log:       LogConfig{Level: "info"},
	}
}

// loadConfig reads a TOML config file on top of the defaults. Unknown keys
// are rejected so typos do not pass silently.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return c, nil
}

// applyFlags overwrites c with every flag the user set explicitly.
func applyFlags(c *Config, fs *pflag.FlagSet) error {
	var err error
	set := func(name string, fn func() error) {
		if err == nil && fs.Changed(name) {
			err = fn()
		}
	}
	set("chunk-size", func() (e error) { c.ChunkSize, e = fs.GetInt("chunk-size"); return })
	set("prefault", func() (e error) { c.Prefault, e = fs.GetBool("prefault"); return })
	set("log-level", func() (e error) {
		c.Log.Level, e = fs.GetString("log-level")
		c.Log.Enabled = true
		return
	})
	set("log-dir", func() (e error) {
		c.Log.Dir, e = fs.GetString("log-dir")
		c.Log.Enabled = true
		return
	})
	set("log-json", func() (e error) { c.Log.JSON, e = fs.GetBool("log-json"); return })
	return err
}

// runtimeOptions builds chunk runtime options from the effective config.
func runtimeOptions() *chunk.Options {
	opts := chunk.DefaultOptions()
	opts.ChunkSize = cfg.ChunkSize
	opts.Prefault = cfg.Prefault
	opts.Logger = logger.L
	return opts
}
