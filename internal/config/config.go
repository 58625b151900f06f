// Package config loads the handray YAML configuration.
//
// Defaults come from Default, a file may override any subset of them, and
// command-line flags override the file through FlagOverrides. Validate once
// after all three have been applied; the rest of the code assumes a
// well-formed Config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/handray/internal/stabilizer"
)

// Source kinds.
const (
	SourceWebcam = "webcam"
	SourcePush   = "push"
	SourceReplay = "replay"
)

// Config is the top-level YAML configuration.
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Store    StoreConfig       `yaml:"store"`
	Source   SourceConfig      `yaml:"source"`
	Detector DetectorConfig    `yaml:"detector"`
	Stream   StreamConfig      `yaml:"stream"`
	Plugins  PluginsConfig     `yaml:"plugins"`
	Tuning   stabilizer.Tuning `yaml:"tuning"`
	Logging  LoggingConfig     `yaml:"logging"`
	Tray     TrayConfig        `yaml:"tray"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig selects where tracking frames come from.
type SourceConfig struct {
	Kind string `yaml:"kind"` // webcam, push or replay

	// Webcam.
	CameraID        int     `yaml:"camera_id"`
	MotionThreshold float64 `yaml:"motion_threshold"` // percent of changed pixels

	// Push.
	PushBuffer int `yaml:"push_buffer"`

	// Replay. Recording is a recording id or name.
	Recording string `yaml:"recording,omitempty"`
	Realtime  bool   `yaml:"realtime"`
	Loop      bool   `yaml:"loop"`
}

type DetectorConfig struct {
	Python        string  `yaml:"python,omitempty"`
	Script        string  `yaml:"script,omitempty"`
	MaxHands      int     `yaml:"max_hands"`
	MinConfidence float64 `yaml:"min_confidence"`
	IdleTimeoutMS int     `yaml:"idle_timeout_ms"`
}

// IdleTimeout returns the detector idle shutdown delay.
func (d DetectorConfig) IdleTimeout() time.Duration {
	return time.Duration(d.IdleTimeoutMS) * time.Millisecond
}

// StreamConfig sizes the pointer websocket hub.
type StreamConfig struct {
	SendBuf      int `yaml:"send_buf"`
	BroadcastBuf int `yaml:"broadcast_buf"`
}

// PluginsConfig locates pointer-event plugins. An empty Dir disables them.
type PluginsConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMS int    `yaml:"timeout_ms"`
	Queue     int    `yaml:"queue"`
}

// Timeout returns the per-run plugin limit.
func (p PluginsConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a fully populated Config.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Store: StoreConfig{
			Path: "~/.handray/data.db",
		},
		Source: SourceConfig{
			Kind:            SourceWebcam,
			MotionThreshold: 1.0,
			PushBuffer:      8,
			Realtime:        true,
		},
		Detector: DetectorConfig{
			MaxHands:      2,
			MinConfidence: 0.5,
			IdleTimeoutMS: 30000,
		},
		Stream: StreamConfig{
			SendBuf:      32,
			BroadcastBuf: 64,
		},
		Plugins: PluginsConfig{
			Dir:       "~/.handray/plugins",
			TimeoutMS: 5000,
			Queue:     32,
		},
		Tuning: stabilizer.DefaultTuning(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file on top of Default.
//
// Unknown fields are rejected to catch typos, and only one YAML document is
// allowed.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML config bytes on top of Default.
func Parse(b []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}
	return cfg, nil
}

// FlagOverrides holds values set on the command line. Nil fields are ignored;
// a non-nil field is applied even when it holds a zero value.
type FlagOverrides struct {
	Addr      *string
	Source    *string
	Recording *string
	CameraID  *int
	LogLevel  *string
	Tray      *bool
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Addr != nil {
		cfg.Server.Addr = *o.Addr
	}
	if o.Source != nil {
		cfg.Source.Kind = *o.Source
	}
	if o.Recording != nil {
		cfg.Source.Recording = *o.Recording
	}
	if o.CameraID != nil {
		cfg.Source.CameraID = *o.CameraID
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.Tray != nil {
		cfg.Tray.Enabled = *o.Tray
	}
}

// Validate checks config invariants and returns a user-friendly error.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}

	switch c.Source.Kind {
	case SourceWebcam:
		if c.Source.MotionThreshold < 0 || c.Source.MotionThreshold > 100 {
			return errors.New("source.motion_threshold must be between 0 and 100")
		}
	case SourcePush:
		if c.Source.PushBuffer <= 0 {
			return errors.New("source.push_buffer must be > 0")
		}
	case SourceReplay:
		if c.Source.Recording == "" {
			return errors.New("source.kind is replay but source.recording is empty")
		}
	default:
		return fmt.Errorf("source.kind must be %q, %q or %q", SourceWebcam, SourcePush, SourceReplay)
	}

	if c.Detector.MaxHands < 1 || c.Detector.MaxHands > 2 {
		return errors.New("detector.max_hands must be 1 or 2")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return errors.New("detector.min_confidence must be between 0 and 1")
	}
	if c.Detector.IdleTimeoutMS <= 0 {
		return errors.New("detector.idle_timeout_ms must be > 0")
	}

	if c.Stream.SendBuf <= 0 || c.Stream.BroadcastBuf <= 0 {
		return errors.New("stream.send_buf and stream.broadcast_buf must be > 0")
	}

	if c.Plugins.TimeoutMS <= 0 || c.Plugins.Queue <= 0 {
		return errors.New("plugins.timeout_ms and plugins.queue must be > 0")
	}

	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}

	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
