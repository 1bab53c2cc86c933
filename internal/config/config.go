package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the full YAML config tree. Each section is owned by the
// component of the same name; nil sections leave the component disabled
// (except logging and http_server which get defaults).
type AppConfig struct {
	AppInfo    AppInfo          `yaml:"app_info"`
	Logging    *LoggingConfig   `yaml:"logging"`
	Postgres   *PostgresConfig  `yaml:"postgres"`
	Redis      *RedisConfig     `yaml:"redis"`
	Metrics    *MetricsConfig   `yaml:"metrics"`
	Telemetry  *TelemetryConfig `yaml:"telemetry"`
	HTTPServer *HTTPConfig      `yaml:"http_server"`
}

type AppInfo struct {
	AppName string `yaml:"app_name"`
	Env     string `yaml:"env"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
	Output string `yaml:"output"` // stdout|stderr|<path>
	Rotate *RotateConfig `yaml:"rotate,omitempty"`
}

type RotateConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

type PostgresConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Database     string        `yaml:"database"`
	SSLMode      string        `yaml:"ssl_mode"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnMaxLife  Duration `yaml:"conn_max_life"`
	PingOnStart  bool          `yaml:"ping_on_start"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addresses    []string      `yaml:"addresses"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"` // exposed on the main http server
	CollectGo bool   `yaml:"collect_go"`
	CollectProcess bool `yaml:"collect_process"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
	PrettyPrint bool    `yaml:"pretty_print"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	RequestTimeout  Duration `yaml:"request_timeout"`
	GracefulTimeout Duration `yaml:"graceful_timeout"`
	EnableHealth    bool          `yaml:"enable_health"`
}

// Load reads a YAML config file and applies env var overrides.
func Load(path string) (*AppConfig, error) {
	abs := path
	if p, err := filepath.Abs(path); err == nil {
		abs = p
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	cfg.applyDefaults()
	cfg.mergeEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Logging == nil {
		c.Logging = &LoggingConfig{Level: "info", Format: "json", Output: "stdout"}
	}
	if c.HTTPServer == nil {
		c.HTTPServer = &HTTPConfig{}
	}
	if c.HTTPServer.Address == "" {
		c.HTTPServer.Address = ":8080"
	}
	if c.HTTPServer.GracefulTimeout <= 0 {
		c.HTTPServer.GracefulTimeout = Duration(10 * time.Second)
	}
	if c.Postgres != nil {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
	}
	if c.Metrics != nil && c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// mergeEnv lets deploy-time secrets override the file without editing it.
func (c *AppConfig) mergeEnv() {
	if v := os.Getenv("TASKCONSOLE_HTTP_ADDR"); v != "" {
		c.HTTPServer.Address = v
	}
	if c.Postgres != nil {
		if v := os.Getenv("TASKCONSOLE_PG_PASSWORD"); v != "" {
			c.Postgres.Password = v
		}
		if v := os.Getenv("TASKCONSOLE_PG_HOST"); v != "" {
			c.Postgres.Host = v
		}
	}
	if c.Redis != nil {
		if v := os.Getenv("TASKCONSOLE_REDIS_PASSWORD"); v != "" {
			c.Redis.Password = v
		}
		if v := os.Getenv("TASKCONSOLE_REDIS_ADDRS"); v != "" {
			c.Redis.Addresses = strings.Split(v, ",")
		}
	}
}

func (c *AppConfig) validate() error {
	if c.Postgres != nil {
		if c.Postgres.Host == "" || c.Postgres.Database == "" || c.Postgres.User == "" {
			return fmt.Errorf("postgres config requires host/user/database")
		}
	}
	if c.Redis != nil && len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("redis config requires at least one address")
	}
	return nil
}
