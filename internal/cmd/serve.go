package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jauhararifin/tetris-engine/internal/config"
	"github.com/jauhararifin/tetris-engine/internal/multiplayer"
	"github.com/jauhararifin/tetris-engine/internal/scorestore"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "UDP address to listen on (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host versus matches",
	Long: `Host versus matches over UDP.

Players meet by joining the same room name. A match starts as soon as the
second player arrives, and both results go to this machine's leaderboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		silence(cmd)
		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		store, err := scorestore.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		log := logrus.StandardLogger()
		server, err := multiplayer.Listen(addr,
			multiplayer.WithRoomSettings(roomSettings(cfg)),
			multiplayer.WithServerLogger(log),
			multiplayer.WithResultHandler(resultRecorder(store, log)),
		)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		printf(cmd, "Serving %s matches on %s\n", emph(cfg.Game.Mode), emph(server.Addr()))
		return server.Serve(ctx)
	},
}

func roomSettings(c *config.Config) multiplayer.Settings {
	return multiplayer.Settings{
		Mode:          c.Game.Mode,
		Width:         c.Game.Width,
		Height:        c.Game.Height,
		Preview:       c.Game.Preview,
		BombThreshold: c.Game.BombThreshold,
		FPS:           c.Server.FPS,
		Countdown:     c.Server.Countdown,
	}
}

// resultRecorder puts both sides of a finished match on the leaderboard.
func resultRecorder(store *scorestore.Store, log logrus.FieldLogger) func(multiplayer.Result) {
	return func(result multiplayer.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		for _, p := range result.Players {
			err := store.Record(ctx, scorestore.Entry{
				Mode:  result.Mode,
				Name:  p.Player.Name,
				Score: p.Score,
				Lines: p.Lines,
			})
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"room":   result.Room,
					"player": p.Player.Name,
				}).Error("cannot record match result")
			}
		}
	}
}
