package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	tetris "github.com/jauhararifin/tetris-engine"
	"github.com/jauhararifin/tetris-engine/internal/multiplayer"
	"github.com/jauhararifin/tetris-engine/internal/ui"
)

var (
	joinAddr string
	joinWait time.Duration
)

func init() {
	joinCmd.Flags().StringVar(&joinAddr, "addr", "", "server address (overrides server.addr)")
	joinCmd.Flags().DurationVar(&joinWait, "wait", 5*time.Minute, "how long to wait for an opponent")
	rootCmd.AddCommand(joinCmd)
}

var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Join a versus match",
	Long: `Join a versus match hosted by "tetris serve".

Both players must use the same room name. Every line you clear pushes a
garbage row onto your opponent's board, and the first to top out loses.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		silence(cmd)
		room := args[0]
		addr := cfg.Server.Addr
		if joinAddr != "" {
			addr = joinAddr
		}

		client, err := multiplayer.Dial(addr, cfg.Player.Name, room)
		if err != nil {
			return err
		}
		defer client.Close()

		printf(cmd, "Waiting for an opponent in room %s on %s...\n", emph(room), emph(addr))
		start, err := client.Join(joinWait)
		if err != nil {
			return err
		}
		opponent, err := opponentOf(start, client.ID())
		if err != nil {
			return err
		}

		closeLog, err := logToFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer closeLog()
		log := logrus.WithFields(logrus.Fields{"room": room, "player": cfg.Player.Name})

		states := map[string]*ui.SharedState{
			client.ID(): {},
			opponent:    {},
		}
		mine := ui.NewBoardView(1, 1, states[client.ID()],
			ui.WithTitle(start.Players[client.ID()]),
			ui.WithInput(func(action tetris.Action) {
				if err := client.SendAction(action); err != nil {
					log.WithError(err).Warn("cannot send action")
				}
			}),
		)
		theirs := ui.NewBoardView(1+ui.ViewWidth(start.Width), 1, states[opponent],
			ui.WithTitle(start.Players[opponent]),
		)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return client.Listen(ctx, func(update *multiplayer.GameStateUpdateMessage) {
				applyUpdate(states, update)
				if update.Finished {
					log.WithField("won", update.Winner == client.ID()).Info("match finished")
				}
			})
		})

		ui.Run(mine, theirs)
		cancel()

		if err := client.Leave(); err != nil {
			log.WithError(err).Warn("cannot send leave message")
		}
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func opponentOf(start *multiplayer.InitGameMessage, me string) (string, error) {
	if _, ok := start.Players[me]; !ok {
		return "", fmt.Errorf("server did not seat player %s", me)
	}
	for id := range start.Players {
		if id != me {
			return id, nil
		}
	}
	return "", errors.New("match started without an opponent")
}

func applyUpdate(states map[string]*ui.SharedState, update *multiplayer.GameStateUpdateMessage) {
	for id, state := range update.State {
		if s, ok := states[id]; ok {
			s.Set(state)
		}
	}
}
