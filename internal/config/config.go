package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load 读取 YAML 配置文件并应用默认值与校验。
// path 为空时依次尝试 FOLIO_CONFIG 环境变量与 configs/config.yaml。
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("FOLIO_CONFIG"))
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(underlying(err)) {
			return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
		}
		// 无配置文件时全部走默认值，模拟盘开箱即用。
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func underlying(err error) error {
	if pe, ok := err.(*os.PathError); ok {
		return pe.Err
	}
	return err
}

// applyEnvOverrides 允许敏感项不落盘。
func (c *Config) applyEnvOverrides() {
	if key := strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")); key != "" && c.AI.APIKey == "" {
		c.AI.APIKey = key
	}
}

// Dump 以 YAML 输出生效配置（API key 打码），用于 debug 日志。
func (c *Config) Dump() string {
	masked := *c
	if masked.AI.APIKey != "" {
		tail := masked.AI.APIKey
		if len(tail) > 4 {
			tail = tail[len(tail)-4:]
		}
		masked.AI.APIKey = "****" + tail
	}
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return ""
	}
	return string(out)
}
