package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/engine"
	"github.com/zeusync/pong3d/internal/match"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the host configuration file.
type Config struct {
	Server  ServerConfig   `json:"server" yaml:"server"`
	Engine  EngineConfig   `json:"engine" yaml:"engine"`
	Physics engine.Physics `json:"physics" yaml:"physics"`
	Match   match.Config   `json:"match" yaml:"match"`
	Log     LogConfig      `json:"log" yaml:"log"`
}

type ServerConfig struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	// BroadcastRate is how many frames per second are pushed to the
	// controlling client.
	BroadcastRate  int           `json:"broadcast_rate" yaml:"broadcast_rate"`
	MaxMessageSize int64         `json:"max_message_size" yaml:"max_message_size"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout"`
	// Token, when set, must be passed as ?token= to take control.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

type EngineConfig struct {
	TickRate          int           `json:"tick_rate" yaml:"tick_rate"`
	CountdownInterval time.Duration `json:"countdown_interval" yaml:"countdown_interval"`
	// Seed fixes the random source. Zero derives it from the session id.
	Seed int64 `json:"seed" yaml:"seed"`
	// HitSounds is the number of hit sound slots loaded per match.
	HitSounds int `json:"hit_sounds" yaml:"hit_sounds"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:     "127.0.0.1:8080",
			BroadcastRate:  30,
			MaxMessageSize: 4096,
			WriteTimeout:   time.Second,
		},
		Engine: EngineConfig{
			TickRate:          60,
			CountdownInterval: 500 * time.Millisecond,
			HitSounds:         1,
		},
		Physics: engine.DefaultPhysics(),
		Match: match.Config{
			Paddle1Color: "#FF0000",
			Paddle2Color: "#0000FF",
			MapStyle:     match.StyleClassic,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("%w: server.listen_addr is empty", ErrInvalidConfig)
	}
	if c.Server.BroadcastRate <= 0 {
		return fmt.Errorf("%w: server.broadcast_rate must be positive", ErrInvalidConfig)
	}
	if c.Server.MaxMessageSize <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("%w: server.max_message_size and server.write_timeout must be positive", ErrInvalidConfig)
	}
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("%w: engine.tick_rate must be positive", ErrInvalidConfig)
	}
	if c.Engine.CountdownInterval <= 0 {
		return fmt.Errorf("%w: engine.countdown_interval must be positive", ErrInvalidConfig)
	}
	if c.Engine.HitSounds < 0 {
		return fmt.Errorf("%w: engine.hit_sounds must not be negative", ErrInvalidConfig)
	}
	if err := c.Physics.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Match.Validate(); err != nil {
		return fmt.Errorf("%w: match: %w", ErrInvalidConfig, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TickInterval is the fixed frame period.
func (c EngineConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

func (c ServerConfig) BroadcastInterval() time.Duration {
	return time.Second / time.Duration(c.BroadcastRate)
}

// LogLevel returns the parsed level. Validate has already checked it.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return lvl
}

// Marshal renders the effective configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
