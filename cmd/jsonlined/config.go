package main

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeshaw/envdecode"
	"github.com/pkg/errors"
)

// config holds jsonlined runtime settings. Values are layered: built-in
// defaults, then the optional TOML file, then environment variables.
type config struct {
	ListenAddr      string `toml:"listen_addr" env:"JSONLINED_LISTEN_ADDR"`
	MaxFrameBytes   int    `toml:"max_frame_bytes" env:"JSONLINED_MAX_FRAME_BYTES"`
	ReadChunkBytes  int    `toml:"read_chunk_bytes" env:"JSONLINED_READ_CHUNK_BYTES"`
	SendBuffer      int    `toml:"send_buffer" env:"JSONLINED_SEND_BUFFER"`
	IdleTimeout     string `toml:"idle_timeout" env:"JSONLINED_IDLE_TIMEOUT"`
	ShutdownTimeout string `toml:"shutdown_timeout" env:"JSONLINED_SHUTDOWN_TIMEOUT"`
	LogLevel        string `toml:"log_level" env:"JSONLINED_LOG_LEVEL"`
}

func defaultConfig() config {
	return config{
		ListenAddr:      "127.0.0.1:8080",
		MaxFrameBytes:   10 * 1024 * 1024,
		ReadChunkBytes:  64 * 1024,
		SendBuffer:      64,
		IdleTimeout:     "0s",
		ShutdownTimeout: "5s",
		LogLevel:        "info",
	}
}

// loadConfig builds the runtime config. An empty path skips the file
// layer; environment variables always apply last.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	if path != "" {
		var raw config
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return config{}, errors.Wrap(err, "load jsonlined config")
		}
		if meta.IsDefined("listen_addr") {
			cfg.ListenAddr = raw.ListenAddr
		}
		if meta.IsDefined("max_frame_bytes") {
			cfg.MaxFrameBytes = raw.MaxFrameBytes
		}
		if meta.IsDefined("read_chunk_bytes") {
			cfg.ReadChunkBytes = raw.ReadChunkBytes
		}
		if meta.IsDefined("send_buffer") {
			cfg.SendBuffer = raw.SendBuffer
		}
		if meta.IsDefined("idle_timeout") {
			cfg.IdleTimeout = raw.IdleTimeout
		}
		if meta.IsDefined("shutdown_timeout") {
			cfg.ShutdownTimeout = raw.ShutdownTimeout
		}
		if meta.IsDefined("log_level") {
			cfg.LogLevel = raw.LogLevel
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return config{}, errors.Wrap(err, "decode environment")
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.MaxFrameBytes <= 0 {
		return errors.New("max_frame_bytes must be positive")
	}
	if c.ReadChunkBytes <= 0 {
		return errors.New("read_chunk_bytes must be positive")
	}
	if c.SendBuffer <= 0 {
		return errors.New("send_buffer must be positive")
	}
	if _, err := time.ParseDuration(c.IdleTimeout); err != nil {
		return errors.Wrap(err, "parse idle_timeout")
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return errors.Wrap(err, "parse shutdown_timeout")
	}
	return nil
}

// idleTimeout returns the parsed idle timeout; validate has already
// checked the string.
func (c config) idleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	return d
}

func (c config) shutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}
