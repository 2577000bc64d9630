package main

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vectorcore/pipeline/pkg/ddarchives"
	"github.com/vectorcore/pipeline/pkg/ddmetrics"
	"github.com/vectorcore/pipeline/pkg/generator"
)

// Config is the top-level declarative configuration for pipeline-agent:
// one optional source and the two sinks it can deliver to. Unknown
// fields are rejected at decode time via ErrorUnused, matching spec.md
// §6's "reject unknown fields" requirement.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Status   struct {
		ListenAddress string `mapstructure:"listen_address"`
	} `mapstructure:"status"`

	Generator  generator.Config `mapstructure:"generator"`
	DDMetrics  ddmetrics.Config `mapstructure:"dd_metrics"`
	DDArchives ddarchives.Config `mapstructure:"dd_archives"`

	AgentVersion string `mapstructure:"agent_version"`
}

func defaultConfig() Config {
	c := Config{}
	c.LogLevel = "info"
	c.Status.ListenAddress = ":8080"
	c.AgentVersion = "1"
	return c
}

// loadConfig reads pipeline-agent's configuration from v (already
// populated from flags/env/file by main), rejecting unknown keys the
// way the teacher's NewClientFromViper family does via
// mapstructure.ErrorUnused.
func loadConfig(v *viper.Viper) (Config, error) {
	cfg := defaultConfig()

	v.SetEnvPrefix("pipeline")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()), func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	}); err != nil {
		return Config{}, fmt.Errorf("pipeline-agent: decode config: %w", err)
	}
	return cfg, nil
}

func parseLogLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
