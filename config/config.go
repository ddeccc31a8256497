package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"lego-house/internal/domain"
)

type Config struct {
	Display       DisplayConfig       `yaml:"display"`
	Devices       DevicesConfig       `yaml:"devices"`
	Tracker       TrackerConfig       `yaml:"tracker"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Outbox        OutboxConfig        `yaml:"outbox"`
	House         HouseConfig         `yaml:"house"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	Remote        RemoteConfig        `yaml:"remote"`
	Pushover      PushoverConfig      `yaml:"pushover"`
	Log           LogConfig           `yaml:"log"`
}

// DisplayConfig selects the projector (full screen) or the preview window.
// The choice is made once at startup.
type DisplayConfig struct {
	Fullscreen    bool   `yaml:"fullscreen"`
	Headless      bool   `yaml:"headless"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	PreviewWidth  int    `yaml:"preview_width"`
	PreviewHeight int    `yaml:"preview_height"`
	TPS           int    `yaml:"tps"`
	Background    string `yaml:"background"`
}

type DevicesConfig struct {
	Lights        string `yaml:"lights"`
	Audio         string `yaml:"audio"`
	InitialMode   string `yaml:"initial_mode"`
	MinVolume     int    `yaml:"min_volume"`
	// nil means unset; zero is a valid level
	MaxVolume     *int   `yaml:"max_volume"`
	InitialVolume *int   `yaml:"initial_volume"`
	SampleRate    int    `yaml:"sample_rate"`
}

type TrackerConfig struct {
	Source     string `yaml:"source"`
	ReplayFile string `yaml:"replay_file"`
	// StaleAfter drops the last mqtt frame when the tracker goes silent.
	StaleAfter string `yaml:"stale_after"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

type HomeAssistantConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	FirstFloor  string `yaml:"first_floor"`
	SecondFloor string `yaml:"second_floor"`
	Speaker     string `yaml:"speaker"`
}

type OutboxConfig struct {
	Size         int    `yaml:"size"`
	MaxAttempts  int    `yaml:"max_attempts"`
	InitialDelay string `yaml:"initial_delay"`
	MaxDelay     string `yaml:"max_delay"`
}

type HouseConfig struct {
	Database string `yaml:"database"`
}

type InfluxDBConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

type RemoteConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`

	KeysPerMinute int  `yaml:"keys_per_minute"`
	// TrustProxy keys rate limiting on X-Forwarded-For; only set it
	// behind a reverse proxy.
	TrustProxy    bool `yaml:"trust_proxy"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Display.Width == 0 {
		c.Display.Width = 1280
	}
	if c.Display.Height == 0 {
		c.Display.Height = 800
	}
	if c.Display.PreviewWidth == 0 {
		c.Display.PreviewWidth = 300
	}
	if c.Display.PreviewHeight == 0 {
		c.Display.PreviewHeight = 300
	}
	if c.Display.TPS == 0 {
		c.Display.TPS = 60
	}
	if c.Devices.Lights == "" {
		c.Devices.Lights = "log"
	}
	if c.Devices.Audio == "" {
		c.Devices.Audio = "log"
	}
	if c.Devices.InitialMode == "" {
		c.Devices.InitialMode = domain.ModeOff.String()
	}
	if c.Devices.MaxVolume == nil {
		c.Devices.MaxVolume = intPtr(10)
	}
	if c.Devices.InitialVolume == nil {
		c.Devices.InitialVolume = intPtr((c.Devices.MinVolume + *c.Devices.MaxVolume) / 2)
	}
	if c.Devices.SampleRate == 0 {
		c.Devices.SampleRate = 44100
	}
	if c.Tracker.Source == "" {
		c.Tracker.Source = "replay"
	}
	if c.Tracker.ReplayFile == "" {
		c.Tracker.ReplayFile = "./tracking.yaml"
	}
	if c.Tracker.StaleAfter == "" {
		c.Tracker.StaleAfter = "2s"
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "lego-house"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "legohouse"
	}
	if c.Outbox.Size == 0 {
		c.Outbox.Size = 64
	}
	if c.Outbox.MaxAttempts == 0 {
		c.Outbox.MaxAttempts = 1
	}
	if c.Outbox.InitialDelay == "" {
		c.Outbox.InitialDelay = "100ms"
	}
	if c.Outbox.MaxDelay == "" {
		c.Outbox.MaxDelay = "2s"
	}
	if c.House.Database == "" {
		c.House.Database = "./data/house.db"
	}
	if c.Remote.Addr == "" {
		c.Remote.Addr = ":8080"
	}
	if c.Remote.KeysPerMinute == 0 {
		c.Remote.KeysPerMinute = 120
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports configuration errors that must abort startup.
func (c *Config) Validate() error {
	var errs []error

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display size must be positive, got %dx%d", c.Display.Width, c.Display.Height))
	}
	if c.Display.PreviewWidth <= 0 || c.Display.PreviewHeight <= 0 {
		errs = append(errs, fmt.Errorf("preview size must be positive, got %dx%d", c.Display.PreviewWidth, c.Display.PreviewHeight))
	}

	if c.Devices.MaxVolume == nil || c.Devices.InitialVolume == nil {
		errs = append(errs, errors.New("max_volume and initial_volume must be set"))
	} else if !c.VolumeRange().Valid() {
		errs = append(errs, fmt.Errorf("min_volume %d above max_volume %d", c.Devices.MinVolume, *c.Devices.MaxVolume))
	} else if v := c.InitialVolume(); v < c.Devices.MinVolume || v > *c.Devices.MaxVolume {
		errs = append(errs, fmt.Errorf("initial_volume %d outside [%d, %d]", v, c.Devices.MinVolume, *c.Devices.MaxVolume))
	}

	if _, err := domain.ParseMode(c.Devices.InitialMode); err != nil {
		errs = append(errs, fmt.Errorf("initial_mode: %w", err))
	}

	switch c.Devices.Lights {
	case "log", "mqtt", "homeassistant":
	default:
		errs = append(errs, fmt.Errorf("unknown lights backend %q", c.Devices.Lights))
	}
	switch c.Devices.Audio {
	case "log", "mqtt", "homeassistant", "speaker":
	default:
		errs = append(errs, fmt.Errorf("unknown audio backend %q", c.Devices.Audio))
	}
	switch c.Tracker.Source {
	case "mqtt", "replay":
	default:
		errs = append(errs, fmt.Errorf("unknown tracker source %q", c.Tracker.Source))
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if c.Outbox.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("outbox max_attempts must be at least 1, got %d", c.Outbox.MaxAttempts))
	}
	if _, err := time.ParseDuration(c.Outbox.InitialDelay); err != nil {
		errs = append(errs, fmt.Errorf("outbox initial_delay: %w", err))
	}
	if _, err := time.ParseDuration(c.Outbox.MaxDelay); err != nil {
		errs = append(errs, fmt.Errorf("outbox max_delay: %w", err))
	}
	if _, err := time.ParseDuration(c.Tracker.StaleAfter); err != nil {
		errs = append(errs, fmt.Errorf("tracker stale_after: %w", err))
	}
	if c.Remote.KeysPerMinute < 1 {
		errs = append(errs, fmt.Errorf("remote keys_per_minute must be positive, got %d", c.Remote.KeysPerMinute))
	}

	return errors.Join(errs...)
}

func (c *Config) VolumeRange() domain.VolumeRange {
	return domain.VolumeRange{Min: c.Devices.MinVolume, Max: *c.Devices.MaxVolume}
}

// InitialVolume is the startup level. Only valid after Parse.
func (c *Config) InitialVolume() int {
	return *c.Devices.InitialVolume
}

func intPtr(v int) *int {
	return &v
}

// Canvas is the frame buffer size for the chosen display mode.
func (c *Config) Canvas() (width, height int) {
	if c.Display.Fullscreen {
		return c.Display.Width, c.Display.Height
	}
	return c.Display.PreviewWidth, c.Display.PreviewHeight
}
