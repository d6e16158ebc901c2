package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tetris "github.com/jauhararifin/tetris-engine"
	"github.com/jauhararifin/tetris-engine/internal/config"
	"github.com/jauhararifin/tetris-engine/internal/multiplayer"
	"github.com/jauhararifin/tetris-engine/internal/scorestore"
	"github.com/jauhararifin/tetris-engine/internal/ui"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configPath, logLevel = "", ""
		configForce = false
		scoresMode, scoresLimit = "", scorestore.DefaultLimit
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// setup writes a config whose store and log live in a temporary directory.
func setup(t *testing.T) (path string, store *scorestore.Store) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Store.Path = filepath.Join(dir, "scores.db")
	cfg.Log.File = filepath.Join(dir, "tetris.log")
	cfg.Player.Name = "tester"
	path = filepath.Join(dir, config.FileName)
	require.NoError(t, config.Write(path, cfg, false))

	store, err := scorestore.Open(cfg.Store.Path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return path, store
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.FileName)

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().Server, cfg.Server)
	assert.Equal(t, tetris.ModeNormal, cfg.Game.Mode)
}

func TestScores(t *testing.T) {
	path, store := setup(t)
	ctx := context.Background()
	at := time.Now().Add(-2 * time.Hour)
	require.NoError(t, store.Record(ctx, scorestore.Entry{Mode: tetris.ModeNormal, Name: "ana", Score: 300, Lines: 4, At: at}))
	require.NoError(t, store.Record(ctx, scorestore.Entry{Mode: tetris.ModeNormal, Name: "bo", Score: 1200, Lines: 11, At: at}))

	out, err := execute(t, "--config", path, "scores")
	require.NoError(t, err)
	assert.Contains(t, out, "Leaderboard for")
	assert.Contains(t, out, "normal")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "2 hours ago")
	table := out[strings.Index(out, "NAME"):]
	assert.Less(t, strings.Index(table, "bo"), strings.Index(table, "ana"))

	out, err = execute(t, "--config", path, "scores", "--mode", "obstacle")
	require.NoError(t, err)
	assert.Contains(t, out, "No games yet.")
}

func TestScoresRejectsUnknownMode(t *testing.T) {
	path, _ := setup(t)
	_, err := execute(t, "--config", path, "scores", "--mode", "zen")
	assert.ErrorIs(t, err, tetris.ErrUnknownMode)
}

func TestBadLogLevel(t *testing.T) {
	path, _ := setup(t)
	_, err := execute(t, "--config", path, "--log-level", "chatty", "scores")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tetris dev"), out)
}

func TestLeaderboardRows(t *testing.T) {
	rows := leaderboardRows([]scorestore.Entry{
		{Name: "ana", Score: 12345, Lines: 20, At: time.Now().Add(-3 * time.Hour)},
		{Name: "bo", Score: 7, Lines: 0, At: time.Now().Add(-3 * time.Hour)},
	})
	assert.Equal(t, [][]string{
		{"1", "ana", "12,345", "20", "3 hours ago"},
		{"2", "bo", "7", "0", "3 hours ago"},
	}, rows)
}

func TestGameRecorder(t *testing.T) {
	_, store := setup(t)
	r := newGameRecorder(store, tetris.ModeObstacle, "ana")

	r.OnEvent(tetris.Event{Type: tetris.EventLinesCleared, Score: 50, Lines: 1})
	r.OnEvent(tetris.Event{Type: tetris.EventGameOver, Score: 120, Lines: 3})
	r.Close()
	r.OnEvent(tetris.Event{Type: tetris.EventGameOver, Score: 999})
	r.Close()

	entries, err := store.Leaderboard(context.Background(), tetris.ModeObstacle, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ana", entries[0].Name)
	assert.Equal(t, 120, entries[0].Score)
	assert.Equal(t, 3, entries[0].Lines)

	best, err := store.Best(context.Background(), tetris.ModeObstacle)
	require.NoError(t, err)
	assert.Equal(t, 120, best)
}

func TestResultRecorder(t *testing.T) {
	_, store := setup(t)
	record := resultRecorder(store, logrus.New())
	record(multiplayer.Result{
		Room: "r1",
		Mode: tetris.ModeSpeedCurve,
		Players: [2]multiplayer.PlayerResult{
			{Player: multiplayer.Player{ID: "1", Name: "ana"}, Score: 10, Lines: 1},
			{Player: multiplayer.Player{ID: "2", Name: "bo"}, Score: 20, Lines: 2},
		},
		Winner: "2",
	})

	entries, err := store.Leaderboard(context.Background(), tetris.ModeSpeedCurve, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bo", entries[0].Name)
	assert.Equal(t, "ana", entries[1].Name)
}

func TestRoomSettings(t *testing.T) {
	cfg := config.Defaults()
	cfg.Game.Mode = tetris.ModeObstacle
	cfg.Server.FPS = 60

	s := roomSettings(&cfg)
	assert.Equal(t, tetris.ModeObstacle, s.Mode)
	assert.Equal(t, cfg.Game.Width, s.Width)
	assert.Equal(t, cfg.Game.BombThreshold, s.BombThreshold)
	assert.Equal(t, 60, s.FPS)
	assert.Equal(t, cfg.Server.Countdown, s.Countdown)
}

func TestOpponentOf(t *testing.T) {
	start := &multiplayer.InitGameMessage{Players: map[string]string{"me": "Ana", "you": "Bo"}}
	id, err := opponentOf(start, "me")
	require.NoError(t, err)
	assert.Equal(t, "you", id)

	_, err = opponentOf(start, "stranger")
	assert.Error(t, err)
	_, err = opponentOf(&multiplayer.InitGameMessage{Players: map[string]string{"me": "Ana"}}, "me")
	assert.Error(t, err)
}

func TestApplyUpdate(t *testing.T) {
	states := map[string]*ui.SharedState{"me": {}, "you": {}}
	applyUpdate(states, &multiplayer.GameStateUpdateMessage{State: map[string]tetris.State{
		"me":       {Score: 5},
		"you":      {Score: 7, Over: true},
		"stranger": {Score: 9},
	}})
	assert.Equal(t, 5, states["me"].GetState().Score)
	assert.True(t, states["you"].GetState().Over)
	assert.Len(t, states, 2)
}
