package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Versifine/slping/internal/slp"
)

type Config struct {
	Targets     []TargetConfig `yaml:"targets"`
	Timeout     time.Duration  `yaml:"timeout"`
	Concurrency int            `yaml:"concurrency"`
	Exporter    ExporterConfig `yaml:"exporter"`
	Logging     LoggingConfig  `yaml:"logging"`
}

type TargetConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ProtocolVersion uint32 `yaml:"protocol_version"`
}

type ExporterConfig struct {
	Listen   ListenConfig  `yaml:"listen"`
	Interval time.Duration `yaml:"interval"`
	// AllowAnyTarget 允许 /status/{target} 查询未配置的服务器
	AllowAnyTarget bool `yaml:"allow_any_target"`
}

type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Timeout:     5 * time.Second,
		Concurrency: 8,
		Exporter: ExporterConfig{
			Listen:   ListenConfig{Host: "0.0.0.0", Port: 9150},
			Interval: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads a YAML file. Fields absent from the file keep their Default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	for i, t := range c.Targets {
		if t.Host == "" {
			errs = append(errs, fmt.Errorf("targets[%d]: host is required", i))
		}
		if t.Port < 0 || t.Port > 65535 {
			errs = append(errs, fmt.Errorf("targets[%d]: port %d out of range", i, t.Port))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.New("concurrency must be at least 1"))
	}
	if c.Exporter.Interval <= 0 {
		errs = append(errs, errors.New("exporter.interval must be positive"))
	}
	return errors.Join(errs...)
}

// SLPConfigs converts the targets into client configurations.
// A zero port or protocol version selects the client default.
func (c *Config) SLPConfigs() []slp.Config {
	cfgs := make([]slp.Config, 0, len(c.Targets))
	for _, t := range c.Targets {
		cfg := slp.NewConfig(t.Host)
		if t.Port != 0 {
			cfg = cfg.WithPort(uint16(t.Port))
		}
		if t.ProtocolVersion != 0 {
			cfg = cfg.WithProtocolVersion(t.ProtocolVersion)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs
}
