package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	HardwareGPIO = "gpio"
	HardwareSim  = "sim"
)

// Config is the bridge configuration, loaded from YAML. Zero fields take the
// values from Default.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Relays    []RelayConfig   `yaml:"relays"`
	Sensor    SensorConfig    `yaml:"sensor"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Network   NetworkConfig   `yaml:"network"`
	NTP       NTPConfig       `yaml:"ntp"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Hardware  string          `yaml:"hardware"`
}

type DeviceConfig struct {
	Name           string `yaml:"name"`
	ClientIDPrefix string `yaml:"client_id_prefix"`
}

type MQTTConfig struct {
	URL            string        `yaml:"url"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	TopicPrefix    string        `yaml:"topic_prefix"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type RelayConfig struct {
	ID   int `yaml:"id"`
	Line int `yaml:"line"`
}

type SensorConfig struct {
	Bus     int `yaml:"bus"`
	Address int `yaml:"address"`
}

type GPIOConfig struct {
	Chip string `yaml:"chip"`
}

type NetworkConfig struct {
	Interface string `yaml:"interface"`
}

type NTPConfig struct {
	Server         string        `yaml:"server"`
	UpdateInterval time.Duration `yaml:"update_interval"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

type TelemetryConfig struct {
	Interval        time.Duration `yaml:"interval"`
	LoopInterval    time.Duration `yaml:"loop_interval"`
	PayloadCapacity int           `yaml:"payload_capacity"`
}

// Default returns the configuration of the reference board: four relays on
// GPIO 26, 25, 27 and 14 and a BME280 at 0x76.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Name:           "esp32-relay-board",
			ClientIDPrefix: "esp32-client-",
		},
		MQTT: MQTTConfig{
			URL:            "tcp://localhost:1883",
			TopicPrefix:    "esp32",
			ReconnectDelay: 5 * time.Second,
			ConnectTimeout: 30 * time.Second,
		},
		Relays: []RelayConfig{
			{ID: 0, Line: 26},
			{ID: 1, Line: 25},
			{ID: 2, Line: 27},
			{ID: 3, Line: 14},
		},
		Sensor: SensorConfig{
			Bus:     1,
			Address: 0x76,
		},
		GPIO: GPIOConfig{
			Chip: "gpiochip0",
		},
		NTP: NTPConfig{
			Server:         "pool.ntp.org",
			UpdateInterval: 60 * time.Second,
			RetryDelay:     time.Second,
		},
		Telemetry: TelemetryConfig{
			Interval:        5000 * time.Millisecond,
			LoopInterval:    50 * time.Millisecond,
			PayloadCapacity: 200,
		},
		Hardware: HardwareGPIO,
	}
}

// Load reads path over Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg, keeping the values data does not set.
func Parse(data []byte, cfg *Config) error {
	relays := cfg.Relays
	cfg.Relays = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if cfg.Relays == nil {
		cfg.Relays = relays
	}
	return nil
}

func (c Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("device.name is required")
	}
	if c.MQTT.URL == "" {
		return fmt.Errorf("mqtt.url is required")
	}
	if c.MQTT.TopicPrefix == "" {
		return fmt.Errorf("mqtt.topic_prefix is required")
	}
	if len(c.Relays) == 0 {
		return fmt.Errorf("at least one relay is required")
	}

	ids := map[int]bool{}
	lines := map[int]bool{}
	for _, r := range c.Relays {
		if r.ID < 0 || r.ID > 99 {
			return fmt.Errorf("relay id %d out of range [0, 99]", r.ID)
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate relay id %d", r.ID)
		}
		if lines[r.Line] {
			return fmt.Errorf("relay %d: line %d already in use", r.ID, r.Line)
		}
		ids[r.ID] = true
		lines[r.Line] = true
	}

	if c.Sensor.Address <= 0 || c.Sensor.Address > 0x7f {
		return fmt.Errorf("sensor.address 0x%x is not a 7-bit i2c address", c.Sensor.Address)
	}
	if c.Telemetry.Interval <= 0 {
		return fmt.Errorf("telemetry.interval must be positive")
	}
	if c.MQTT.ReconnectDelay <= 0 {
		return fmt.Errorf("mqtt.reconnect_delay must be positive")
	}

	switch c.Hardware {
	case HardwareGPIO, HardwareSim:
	default:
		return fmt.Errorf("hardware must be one of [%s, %s], got %q", HardwareGPIO, HardwareSim, c.Hardware)
	}
	return nil
}
