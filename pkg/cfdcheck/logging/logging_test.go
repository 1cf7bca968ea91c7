package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{input: "debug", want: logging.LevelDebug},
		{input: "INFO", want: logging.LevelInfo},
		{input: "", want: logging.LevelInfo},
		{input: "warning", want: logging.LevelWarn},
		{input: "error", want: logging.LevelError},
		{input: "loud", want: logging.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, logging.ErrInvalidLevel)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// No t.Parallel() in this file: Init and Close mutate package state.

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  logging.Config{Level: "info"},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "info",
				Components: map[string]string{"estimate": "debug", "server": "warn"},
			},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "invalid"},
			wantErr: true,
		},
		{
			name:    "invalid component level",
			cfg:     logging.Config{Level: "info", Components: map[string]string{"mesh": "chatty"}},
			wantErr: true,
		},
		{
			name:    "invalid console level",
			cfg:     logging.Config{Level: "info", ConsoleLevel: "shout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Path = filepath.Join(t.TempDir(), "test.log")

			err := logging.Init(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, logging.Close())
		})
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "write.log")
	require.NoError(t, logging.Init(logging.Config{Level: "debug", Path: logPath}))

	logger := logging.Get("estimate")
	logger.Info("evaluated profile", "cells", 10_000_000)
	logger.With("resource", "ram_capacity").Debug("scored")

	require.NoError(t, logging.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "evaluated profile")
	assert.Contains(t, string(content), "estimate")
	assert.Contains(t, string(content), "ram_capacity")
}

func TestLogLevels(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "levels.log")
	require.NoError(t, logging.Init(logging.Config{
		Level:      "warn",
		Path:       logPath,
		Components: map[string]string{"mesh": "debug"},
	}))

	logger := logging.Get("check")
	logger.Debug("debug should not appear")
	logger.Info("info should not appear")
	logger.Warn("warn should appear")
	logging.Get("mesh").Debug("mesh debug should appear")

	require.NoError(t, logging.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	text := string(content)
	assert.NotContains(t, text, "debug should not appear")
	assert.NotContains(t, text, "info should not appear")
	assert.Contains(t, text, "warn should appear")
	assert.Contains(t, text, "mesh debug should appear")
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	logger := logging.Get("early")
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Error("nowhere to go") })
	assert.Same(t, logger, logging.Get("early"))
}

func TestTUIModeBuffersEntries(t *testing.T) {
	require.NoError(t, logging.Init(logging.Config{
		Level:        "info",
		Path:         filepath.Join(t.TempDir(), "tui.log"),
		TUIMode:      true,
		ConsoleLevel: "debug",
	}))
	defer func() { _ = logging.Close() }()

	buf := logging.Buffer()
	require.NotNil(t, buf)

	logger := logging.Get("tui")
	logger.Debug("filtered")
	logger.Info("first")
	logger.Warn("second")

	entries := buf.Last(10)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, logging.LevelWarn, entries[1].Level)
	assert.Equal(t, "tui", entries[1].Component)
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, strings.HasSuffix(cfg.Path, filepath.Join("cfdcheck", "cfdcheck.log")))
	assert.Equal(t, logging.DefaultRotationConfig(), cfg.Rotation)
}
