package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tetris "github.com/jauhararifin/tetris-engine"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
game:
  mode: obstacle
  width: 12
  seed: 99
server:
  countdown: 500ms
player:
  name: ana
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, tetris.ModeObstacle, cfg.Game.Mode)
	assert.Equal(t, 12, cfg.Game.Width)
	assert.Equal(t, tetris.DefaultHeight, cfg.Game.Height, "unset keys keep defaults")
	assert.Equal(t, int64(99), cfg.Game.Seed)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.Countdown)
	assert.Equal(t, 24, cfg.Server.FPS)
	assert.Equal(t, "ana", cfg.Player.Name)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "game:\n  mode: obstacle\n")
	t.Setenv("TETRIS_GAME_MODE", "speed-curve")
	t.Setenv("TETRIS_SERVER_ADDR", "0.0.0.0:9000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tetris.ModeSpeedCurve, cfg.Game.Mode)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeFile(t, "game:\n  mode: marathon\n"))
	assert.ErrorContains(t, err, tetris.ErrUnknownMode.Error())

	_, err = Load(writeFile(t, "game:\n  width: 2\n"))
	assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)

	_, err = Load(writeFile(t, "log:\n  level: chatty\n"))
	assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Defaults()
	cfg.Game.Mode = tetris.ModeObstacle
	cfg.Server.Countdown = 2 * time.Second
	cfg.Player.Name = "bo"

	require.NoError(t, Write(path, cfg, false))
	assert.Error(t, Write(path, cfg, false), "existing file is kept")
	require.NoError(t, Write(path, cfg, true))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "mode: obstacle")
	assert.Contains(t, string(raw), "countdown: 2s")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestBoardOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Game.Mode = tetris.ModeObstacle
	cfg.Game.Width = 8
	cfg.Game.Height = 14
	cfg.Game.Seed = 7

	b := tetris.NewBoard(cfg.BoardOptions()...)
	assert.Equal(t, 8, b.Width())
	assert.Equal(t, 14, b.Height())
	assert.Equal(t, tetris.ModeObstacle, b.Mode())
}
