// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/logutil"
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 8192
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
	defaultMaxSize   = 512
)

// AggConfig configures the groupArrayInsertAt operator.
type AggConfig struct {
	// Workers is the number of goroutines filling one batch. default: 4
	Workers int `toml:"workers"`
	// BatchSize is the number of input rows per batch. default: 8192
	BatchSize int `toml:"batch-size"`
	// SpillDir is where partial states are spilled. default: a temporary directory
	SpillDir string `toml:"spill-dir"`
	// SpillThreshold is the number of in-memory groups that triggers a
	// spill. default: 0, never spill
	SpillThreshold int `toml:"spill-threshold"`
}

// Config is the configuration of the insertat tool.
type Config struct {
	Log logutil.LogConfig `toml:"log"`
	Agg AggConfig         `toml:"agg"`
}

// LoadConfigFromFile decodes the toml file and fills the defaults.
func LoadConfigFromFile(ctx context.Context, file string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(file, cfg); err != nil {
		return nil, moerr.NewBadConfig(ctx, "%s: %v", file, err)
	}
	cfg.Fill()
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Fill sets the defaults of unset fields.
func (c *Config) Fill() {
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = defaultMaxSize
	}
	if c.Agg.Workers == 0 {
		c.Agg.Workers = defaultWorkers
	}
	if c.Agg.BatchSize == 0 {
		c.Agg.BatchSize = defaultBatchSize
	}
}

// Validate validates the configuration.
func (c *Config) Validate(ctx context.Context) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return moerr.NewBadConfig(ctx, "log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return moerr.NewBadConfig(ctx, "log format %q", c.Log.Format)
	}
	if c.Log.MaxSize < 0 || c.Log.MaxDays < 0 || c.Log.MaxBackups < 0 {
		return moerr.NewBadConfig(ctx, "negative log rotation setting")
	}
	if c.Agg.Workers < 0 {
		return moerr.NewBadConfig(ctx, "workers %d", c.Agg.Workers)
	}
	if c.Agg.BatchSize < 0 {
		return moerr.NewBadConfig(ctx, "batch-size %d", c.Agg.BatchSize)
	}
	if c.Agg.SpillThreshold < 0 {
		return moerr.NewBadConfig(ctx, "spill-threshold %d", c.Agg.SpillThreshold)
	}
	return nil
}
