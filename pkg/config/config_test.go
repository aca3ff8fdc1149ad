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
	"os"
	"path/filepath"
	"testing"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "insertat.toml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoadConfigFromFile(t *testing.T) {
	ctx := context.Background()
	file := writeConfig(t, `
[log]
level = "debug"
format = "json"
max-backups = 3

[agg]
workers = 8
spill-dir = "/tmp/spill"
spill-threshold = 100000
`)
	cfg, err := LoadConfigFromFile(ctx, file)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, 3, cfg.Log.MaxBackups)
	require.Equal(t, defaultMaxSize, cfg.Log.MaxSize)
	require.Equal(t, AggConfig{
		Workers:        8,
		BatchSize:      defaultBatchSize,
		SpillDir:       "/tmp/spill",
		SpillThreshold: 100000,
	}, cfg.Agg)

	cfg, err = LoadConfigFromFile(ctx, writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, defaultLogLevel, cfg.Log.Level)
	require.Equal(t, defaultLogFormat, cfg.Log.Format)
	require.Equal(t, defaultWorkers, cfg.Agg.Workers)

	_, err = LoadConfigFromFile(ctx, filepath.Join(t.TempDir(), "missing.toml"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))

	_, err = LoadConfigFromFile(ctx, writeConfig(t, "[agg]\nworkers = \"many\"\n"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}

func TestConfigValidate(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"max days", func(c *Config) { c.Log.MaxDays = -1 }},
		{"workers", func(c *Config) { c.Agg.Workers = -2 }},
		{"batch size", func(c *Config) { c.Agg.BatchSize = -1 }},
		{"spill threshold", func(c *Config) { c.Agg.SpillThreshold = -1 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Fill()
			require.NoError(t, cfg.Validate(ctx))
			c.modify(cfg)
			err := cfg.Validate(ctx)
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig), "%v", err)
		})
	}
}
