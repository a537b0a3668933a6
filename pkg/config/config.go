package config

import (
	"os"

	"lintang/bmssp/pkg/server"

	"github.com/BurntSushi/toml"
)

// EngineConfig parameter BMSSP. nilai 0 berarti diturunkan dari jumlah vertex.
type EngineConfig struct {
	Algorithm      string `toml:"algorithm"`
	K              int    `toml:"k"`
	T              int    `toml:"t"`
	PivotThreshold int    `toml:"pivot_threshold"`
	MaxLevel       int    `toml:"max_level"`
	Workers        int    `toml:"workers"`
}

type OutputConfig struct {
	IncludeUnreachable bool   `toml:"include_unreachable"`
	Order              string `toml:"order"`
}

type ServerConfig struct {
	Addr        string `toml:"addr"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

type StoreConfig struct {
	Path string `toml:"path"`
	// InMemory pebble di vfs memory, tidak ada file yang ditulis
	InMemory bool `toml:"in_memory"`
}

type ParserConfig struct {
	Profile string `toml:"profile"`
}

type Config struct {
	LogLevel string       `toml:"log_level"`
	Engine   EngineConfig `toml:"engine"`
	Output   OutputConfig `toml:"output"`
	Server   ServerConfig `toml:"server"`
	Store    StoreConfig  `toml:"store"`
	Parser   ParserConfig `toml:"parser"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			Algorithm: "bmssp",
			Workers:   4,
		},
		Output: OutputConfig{
			Order: "vertex",
		},
		Server: ServerConfig{
			Addr:        ":6060",
			TimeoutSecs: 60,
		},
		Store: StoreConfig{
			Path: "bmsspDB",
		},
		Parser: ParserConfig{
			Profile: "highway",
		},
	}
}

// Load baca file toml di atas default. path kosong = default saja.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	bb, err := os.ReadFile(path)
	if err != nil {
		return cfg, server.WrapErrorf(err, server.ErrBadParamInput, "reading config %s", path)
	}
	return Parse(bb)
}

func Parse(bb []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(bb), &cfg)
	if err != nil {
		return cfg, server.WrapErrorf(err, server.ErrBadParamInput, "decoding config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, server.WrapErrorf(nil, server.ErrBadParamInput, "unknown config key %s", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	e := c.Engine
	if e.K < 0 || e.T < 0 || e.PivotThreshold < 0 || e.MaxLevel < 0 {
		return server.WrapErrorf(nil, server.ErrBadParamInput, "engine parameters must not be negative")
	}
	if e.Workers < 0 {
		return server.WrapErrorf(nil, server.ErrBadParamInput, "workers must not be negative")
	}
	if c.Server.TimeoutSecs < 0 {
		return server.WrapErrorf(nil, server.ErrBadParamInput, "server timeout must not be negative")
	}
	return nil
}
