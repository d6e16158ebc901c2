package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	tetris "github.com/jauhararifin/tetris-engine"
	"github.com/jauhararifin/tetris-engine/internal/scorestore"
	"github.com/jauhararifin/tetris-engine/internal/ui"
)

const recordTimeout = 5 * time.Second

var playMode string

func init() {
	playCmd.Flags().StringVar(&playMode, "mode", "", "normal, speed-curve or obstacle (overrides game.mode)")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a single player game",
	Long: `Play a single player game.

Arrow keys or WASD move and rotate, space drops, c holds, p pauses, r
restarts and Ctrl+C quits. Every finished game goes to the leaderboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if playMode != "" {
			mode, err := tetris.ParseMode(playMode)
			if err != nil {
				return err
			}
			cfg.Game.Mode = mode
		}
		silence(cmd)

		store, err := scorestore.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		best, err := store.Best(cmd.Context(), cfg.Game.Mode)
		if err != nil {
			return err
		}

		closeLog, err := logToFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer closeLog()

		recorder := newGameRecorder(store, cfg.Game.Mode, cfg.Player.Name)
		defer recorder.Close()

		game := tetris.NewGame(
			tetris.WithBoard(tetris.NewBoard(cfg.BoardOptions()...)),
			tetris.WithScore(tetris.NewScore(best)),
			tetris.WithEventHandler(recorder),
		)
		return ui.Play(cmd.Context(), game, cfg.Player.Name)
	},
}

// gameRecorder saves every finished game to the leaderboard. Events arrive
// with the game's lock held, so entries are written from their own goroutine.
type gameRecorder struct {
	store *scorestore.Store
	mode  tetris.Mode
	name  string
	log   logrus.FieldLogger

	m      sync.Mutex
	closed bool
	events chan tetris.Event
	done   chan struct{}
}

func newGameRecorder(store *scorestore.Store, mode tetris.Mode, name string) *gameRecorder {
	r := &gameRecorder{
		store:  store,
		mode:   mode,
		name:   name,
		log:    logrus.WithFields(logrus.Fields{"player": name, "mode": mode}),
		events: make(chan tetris.Event, 8),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *gameRecorder) OnEvent(ev tetris.Event) {
	if ev.Type != tetris.EventGameOver {
		return
	}

	r.m.Lock()
	defer r.m.Unlock()
	if r.closed {
		return
	}
	select {
	case r.events <- ev:
	default:
		r.log.Warn("recorder busy, dropping finished game")
	}
}

func (r *gameRecorder) run() {
	defer close(r.done)
	for ev := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		err := r.store.Record(ctx, scorestore.Entry{
			Mode:  r.mode,
			Name:  r.name,
			Score: ev.Score,
			Lines: ev.Lines,
		})
		cancel()

		log := r.log.WithFields(logrus.Fields{"score": ev.Score, "lines": ev.Lines})
		if err != nil {
			log.WithError(err).Error("cannot record game")
			continue
		}
		log.Info("game recorded")
	}
}

// Close waits for pending entries to be written.
func (r *gameRecorder) Close() {
	r.m.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.m.Unlock()
	<-r.done
}
