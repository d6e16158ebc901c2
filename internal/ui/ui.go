// Package ui renders boards in the terminal with termloop.
package ui

import (
	"context"
	"errors"

	"github.com/JoelOtter/termloop"
	"github.com/sirupsen/logrus"

	tetris "github.com/jauhararifin/tetris-engine"
)

const fps = 30

// Run takes over the terminal and draws entities until the player presses
// Ctrl+C.
func Run(entities ...termloop.Drawable) {
	game := termloop.NewGame()
	game.Screen().SetFps(fps)
	level := termloop.NewBaseLevel(termloop.Cell{})
	for _, e := range entities {
		level.AddEntity(e)
	}
	game.Screen().SetLevel(level)
	game.Start()
}

// Play runs a single player game: gravity on a timer, arrow keys or WASD to
// move, space to drop, c to hold, p to pause and r to restart.
func Play(ctx context.Context, game *tetris.Game, name string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- game.Run(ctx)
	}()

	log := logrus.WithFields(logrus.Fields{"player": name, "mode": game.Mode()})
	log.Info("game started")

	view := NewBoardView(1, 1, game,
		WithTitle(name),
		WithInput(func(action tetris.Action) {
			game.Apply(action)
		}),
		WithControls(
			func() {
				log.WithField("paused", game.TogglePause()).Debug("pause toggled")
			},
			func() {
				game.Restart()
				log.Info("game restarted")
			},
		),
	)
	Run(view)

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
