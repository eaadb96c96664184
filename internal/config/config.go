package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string          `yaml:"env" env:"ENV" env-default:"prod"`
	Device     DeviceConfig    `yaml:"device"`
	HTTP       HTTPConfig      `yaml:"http"`
	Health     HealthConfig    `yaml:"health"`
	Sonar      SonarConfig     `yaml:"sonar"`
	Cycle      CycleConfig     `yaml:"cycle"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Indicators IndicatorConfig `yaml:"indicators"`
	Display    DisplayConfig   `yaml:"display"`
	Uplink     UplinkConfig    `yaml:"uplink"`
	Buffer     BufferConfig    `yaml:"buffer"`
	Log        LogConfig       `yaml:"log"`
}

type DeviceConfig struct {
	ID   string `yaml:"id" env:"DEVICE_ID" env-default:"levelmon"`
	Name string `yaml:"name" env-default:"water tank"`
}

type HTTPConfig struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":80"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type HealthConfig struct {
	Address string `yaml:"address" env:"HEALTH_ADDRESS" env-default:":8080"`
	// consecutive unknown samples before the sonar check degrades / fails
	DegradedMisses  int64 `yaml:"degraded_misses" env-default:"5"`
	UnhealthyMisses int64 `yaml:"unhealthy_misses" env-default:"50"`
}

type SonarConfig struct {
	Driver        string        `yaml:"driver" env:"SONAR_DRIVER" env-default:"sim"`
	Path          string        `yaml:"path" env-default:"/sys/bus/iio/devices/iio:device0/in_distance_raw"`
	Scale         float64       `yaml:"scale" env-default:"0.1"`
	URL           string        `yaml:"url"`
	Field         string        `yaml:"field" env-default:"distance"`
	MaxDistanceCM int           `yaml:"max_distance_cm" env-default:"300"`
	Settle        time.Duration `yaml:"settle" env-default:"50ms"`
	Timeout       time.Duration `yaml:"timeout" env-default:"500ms"`
	SimDepthCM    int           `yaml:"sim_depth_cm" env-default:"120"`
}

type CycleConfig struct {
	Interval time.Duration `yaml:"interval" env-default:"1s"`
}

type ThresholdConfig struct {
	Low  float64 `yaml:"low" env-default:"50"`
	Mid  float64 `yaml:"mid" env-default:"75"`
	High float64 `yaml:"high" env-default:"90"`
}

type IndicatorConfig struct {
	Driver    string `yaml:"driver" env-default:"log"`
	GPIORoot  string `yaml:"gpio_root" env-default:"/sys/class/gpio"`
	OKPin     int    `yaml:"ok_pin" env-default:"16"`
	WarnPin   int    `yaml:"warn_pin" env-default:"5"`
	DangerPin int    `yaml:"danger_pin" env-default:"4"`
}

type DisplayConfig struct {
	Width int `yaml:"width" env-default:"16"`
}

type UplinkConfig struct {
	Enabled  bool          `yaml:"enabled" env-default:"false"`
	Driver   string        `yaml:"driver" env-default:"http"`
	URL      string        `yaml:"url" env:"UPLINK_URL"`
	Token    string        `yaml:"token" env:"UPLINK_TOKEN"`
	Topic    string        `yaml:"topic" env-default:"levelmon/readings"`
	ClientID string        `yaml:"client_id"`
	Interval time.Duration `yaml:"interval" env-default:"30s"`
	Timeout  time.Duration `yaml:"timeout" env-default:"10s"`
	Retry    RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env-default:"5"`
	InitialDelay time.Duration `yaml:"initial_delay" env-default:"1s"`
	MaxDelay     time.Duration `yaml:"max_delay" env-default:"60s"`
}

type BufferConfig struct {
	Enabled bool          `yaml:"enabled" env-default:"true"`
	Path    string        `yaml:"path" env-default:"/var/lib/levelmon/buffer.db"`
	MaxAge  time.Duration `yaml:"max_age" env-default:"24h"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env-default:"json"`
}

// Load reads the config file at configPath, falling back to CONFIG_PATH and
// then config/config.yaml.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.Sonar.Driver {
	case "sim", "iio", "remote":
	default:
		return fmt.Errorf("unknown sonar driver %q", c.Sonar.Driver)
	}
	if c.Sonar.Driver == "remote" && c.Sonar.URL == "" {
		return fmt.Errorf("sonar.url is required for the remote driver")
	}

	switch c.Indicators.Driver {
	case "log", "gpio":
	default:
		return fmt.Errorf("unknown indicator driver %q", c.Indicators.Driver)
	}

	if c.Cycle.Interval <= 0 {
		return fmt.Errorf("cycle.interval must be positive")
	}

	if c.Uplink.Enabled {
		switch c.Uplink.Driver {
		case "http", "mqtt":
		default:
			return fmt.Errorf("unknown uplink driver %q", c.Uplink.Driver)
		}
		if c.Uplink.URL == "" {
			return fmt.Errorf("uplink.url is required when the uplink is enabled")
		}
	}

	return nil
}
