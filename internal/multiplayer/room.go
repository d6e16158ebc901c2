package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	tetris "github.com/jauhararifin/tetris-engine"
)

const (
	// GarbageColor is the cell value of rows sent to the opponent.
	GarbageColor = int(tetris.PieceZ)

	// finalRepeats is how many times the closing update is sent, since a
	// lost datagram would leave a client waiting forever.
	finalRepeats = 3
)

var (
	ErrRoomFull      = errors.New("room already full")
	ErrInvalidPlayer = errors.New("player id or name cannot be empty")
	ErrNoSuchPlayer  = errors.New("no such player")
)

type MessageSender interface {
	Send(playerID string, msg []byte) error
}

type MessageSenderFunc func(playerID string, msg []byte) error

func (f MessageSenderFunc) Send(playerID string, msg []byte) error {
	return f(playerID, msg)
}

type Player struct {
	ID   string
	Name string
}

type Settings struct {
	Mode          tetris.Mode
	Width, Height int
	Preview       int
	BombThreshold int
	FPS           int
	Countdown     time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Mode:          tetris.ModeNormal,
		Width:         tetris.DefaultWidth,
		Height:        tetris.DefaultHeight,
		Preview:       tetris.DefaultPreview,
		BombThreshold: tetris.DefaultBombThreshold,
		FPS:           24,
		Countdown:     3 * time.Second,
	}
}

// PlayerResult is one side of a finished match.
type PlayerResult struct {
	Player Player
	Score  int
	Lines  int
}

type Result struct {
	Room    string
	Mode    tetris.Mode
	Players [2]PlayerResult
	Winner  string
}

// Room pairs two players. The match starts when the second player joins,
// and every line one player clears pushes a garbage row onto the other
// board.
type Room struct {
	m          *sync.Mutex
	name       string
	randomizer *rand.Rand
	settings   Settings
	sender     MessageSender
	log        logrus.FieldLogger
	onFinish   func(Result)

	players [2]Player
	games   [2]*tetris.Game
	cancel  context.CancelFunc
	done    chan struct{}
}

type RoomOption func(*Room)

func WithSettings(settings Settings) RoomOption {
	return func(r *Room) {
		r.settings = settings
	}
}

func WithRoomSeed(seed int64) RoomOption {
	return func(r *Room) {
		r.randomizer = rand.New(rand.NewSource(seed))
	}
}

func WithLogger(log logrus.FieldLogger) RoomOption {
	return func(r *Room) {
		r.log = log
	}
}

// WithFinishHandler is called once per match, from the room's own goroutine,
// after the seats have been freed.
func WithFinishHandler(fn func(Result)) RoomOption {
	return func(r *Room) {
		r.onFinish = fn
	}
}

func NewRoom(name string, sender MessageSender, options ...RoomOption) *Room {
	r := &Room{
		m:        &sync.Mutex{},
		name:     name,
		settings: DefaultSettings(),
		sender:   sender,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.randomizer == nil {
		r.randomizer = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r.log = r.log.WithField("room", name)
	return r
}

func (r *Room) Name() string {
	return r.name
}

func (r *Room) Players() []Player {
	r.m.Lock()
	defer r.m.Unlock()

	var players []Player
	for _, p := range r.players {
		if p.ID != "" {
			players = append(players, p)
		}
	}
	return players
}

func (r *Room) Started() bool {
	r.m.Lock()
	defer r.m.Unlock()
	return r.cancel != nil
}

func (r *Room) OnPlayerJoin(player Player) error {
	if player.ID == "" || player.Name == "" {
		return ErrInvalidPlayer
	}

	r.m.Lock()
	defer r.m.Unlock()

	if r.players[0].ID == player.ID || r.players[1].ID == player.ID {
		return nil
	}
	if r.players[0].ID == "" {
		r.players[0] = player
		r.log.WithField("player", player.Name).Info("player waiting for opponent")
		return nil
	}
	if r.players[1].ID == "" {
		r.players[1] = player
		return r.start()
	}
	return ErrRoomFull
}

func (r *Room) OnPlayerLeave(playerID string) error {
	r.m.Lock()
	defer r.m.Unlock()

	switch playerID {
	case r.players[0].ID:
		r.players[0] = r.players[1]
		r.players[1] = Player{}
	case r.players[1].ID:
		r.players[1] = Player{}
	default:
		return ErrNoSuchPlayer
	}
	r.log.WithField("player", playerID).Info("player left")
	r.stop()
	return nil
}

// OnMessage applies an action message from a player to that player's board.
func (r *Room) OnMessage(playerID string, msg []byte) {
	actionMsg := ActionMessage{}
	if err := decode(msg, &actionMsg); err != nil {
		r.log.WithError(err).WithField("player", playerID).Warn("cannot parse action message")
		return
	}

	r.m.Lock()
	var game *tetris.Game
	for i, p := range r.players {
		if p.ID == playerID {
			game = r.games[i]
		}
	}
	r.m.Unlock()

	if game == nil {
		r.log.WithField("player", playerID).Warn("action for a player without a running game")
		return
	}
	game.Apply(actionMsg.Action)
}

// Close stops a running match and waits for its goroutines.
func (r *Room) Close() {
	r.m.Lock()
	done := r.done
	r.stop()
	r.m.Unlock()

	if done != nil {
		<-done
	}
}

// Wait blocks until the current match, if any, has stopped.
func (r *Room) Wait() {
	r.m.Lock()
	done := r.done
	r.m.Unlock()

	if done != nil {
		<-done
	}
}

type garbageRow struct {
	target int
	lines  int
}

func (r *Room) newGame(seed int64, index int, garbage chan<- garbageRow) *tetris.Game {
	s := r.settings
	board := tetris.NewBoard(
		tetris.WithMode(s.Mode),
		tetris.WithSize(s.Width, s.Height),
		tetris.WithPreviewCount(s.Preview),
		tetris.WithPowerUpThreshold(s.BombThreshold),
		tetris.WithSeed(seed),
	)
	opponent := 1 - index
	return tetris.NewGame(
		tetris.WithBoard(board),
		tetris.WithEventHandler(tetris.EventHandlerFunc(func(ev tetris.Event) {
			if ev.Type != tetris.EventLinesCleared {
				return
			}
			// The opponent's game has its own lock, so the rows are applied
			// from the garbage loop instead of here.
			select {
			case garbage <- garbageRow{target: opponent, lines: ev.Clear.Lines}:
			default:
				r.log.Warn("garbage queue full, dropping rows")
			}
		})),
	)
}

// start must be called with the lock held.
func (r *Room) start() error {
	seeds := [2]int64{r.randomizer.Int63(), r.randomizer.Int63()}
	garbage := make(chan garbageRow, 64)
	r.games[0] = r.newGame(seeds[0], 0, garbage)
	r.games[1] = r.newGame(seeds[1], 1, garbage)

	msg, err := encode(ServerMessage{InitGameMessage: &InitGameMessage{
		Players: map[string]string{
			r.players[0].ID: r.players[0].Name,
			r.players[1].ID: r.players[1].Name,
		},
		Mode:      r.settings.Mode,
		Width:     r.settings.Width,
		Height:    r.settings.Height,
		FPS:       r.settings.FPS,
		Countdown: r.settings.Countdown,
	}})
	if err != nil {
		return fmt.Errorf("encode init message: %w", err)
	}
	r.broadcast(r.players, msg)

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.log.WithFields(logrus.Fields{
		"player1": r.players[0].Name,
		"player2": r.players[1].Name,
		"mode":    r.settings.Mode,
	}).Info("match starting")

	go r.run(ctx, cancel, r.done, r.players, r.games, garbage, r.randomizer.Int63())
	return nil
}

// stop must be called with the lock held.
func (r *Room) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = nil
	r.done = nil
	r.games = [2]*tetris.Game{}
}

func (r *Room) broadcast(players [2]Player, msg []byte) {
	for _, p := range players {
		if p.ID == "" {
			continue
		}
		if err := r.sender.Send(p.ID, msg); err != nil {
			r.log.WithError(err).WithField("player", p.ID).Warn("cannot send message")
		}
	}
}

func (r *Room) run(
	ctx context.Context,
	cancel context.CancelFunc,
	done chan struct{},
	players [2]Player,
	games [2]*tetris.Game,
	garbage <-chan garbageRow,
	seed int64,
) {
	defer close(done)

	select {
	case <-ctx.Done():
		return
	case <-time.After(r.settings.Countdown):
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, game := range games {
		game := game
		g.Go(func() error {
			return game.Run(ctx)
		})
	}
	g.Go(func() error {
		return r.garbageLoop(ctx, games, garbage, seed)
	})
	g.Go(func() error {
		defer cancel()
		return r.updateLoop(ctx, done, players, games)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		r.log.WithError(err).Error("match stopped")
	}
}

func (r *Room) garbageLoop(ctx context.Context, games [2]*tetris.Game, garbage <-chan garbageRow, seed int64) error {
	randomizer := rand.New(rand.NewSource(seed))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case row := <-garbage:
			for i := 0; i < row.lines; i++ {
				games[row.target].AddGarbage(randomizer.Intn(games[row.target].Width()), GarbageColor)
			}
		}
	}
}

// updateLoop streams snapshots at the configured frame rate and ends the
// match when either board tops out.
func (r *Room) updateLoop(ctx context.Context, done chan struct{}, players [2]Player, games [2]*tetris.Game) error {
	ticker := time.NewTicker(time.Second / time.Duration(r.settings.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		states := [2]tetris.State{games[0].GetState(), games[1].GetState()}
		update := &GameStateUpdateMessage{
			State: map[string]tetris.State{
				players[0].ID: states[0],
				players[1].ID: states[1],
			},
		}
		if states[0].Over || states[1].Over {
			update.Finished = true
			update.Winner = winner(players, states)
		}

		msg, err := encode(ServerMessage{GameStateUpdateMessage: update})
		if err != nil {
			r.log.WithError(err).Error("cannot encode game state update message")
			continue
		}
		r.broadcast(players, msg)

		if update.Finished {
			for i := 1; i < finalRepeats; i++ {
				r.broadcast(players, msg)
			}
			r.release(done)
			r.finish(players, states, update.Winner)
			return nil
		}
	}
}

// release empties the seats of the match that owns done, so players who
// quit without leaving do not keep the room full.
func (r *Room) release(done chan struct{}) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.done != done {
		return
	}
	r.stop()
	r.players = [2]Player{}
}

func winner(players [2]Player, states [2]tetris.State) string {
	switch {
	case states[0].Over && !states[1].Over:
		return players[1].ID
	case states[1].Over && !states[0].Over:
		return players[0].ID
	case states[0].Score > states[1].Score:
		return players[0].ID
	case states[1].Score > states[0].Score:
		return players[1].ID
	}
	return ""
}

func (r *Room) finish(players [2]Player, states [2]tetris.State, winnerID string) {
	result := Result{
		Room:   r.name,
		Mode:   r.settings.Mode,
		Winner: winnerID,
	}
	for i := range players {
		result.Players[i] = PlayerResult{Player: players[i], Score: states[i].Score, Lines: states[i].Lines}
	}
	r.log.WithFields(logrus.Fields{
		"winner": winnerID,
		"score1": states[0].Score,
		"score2": states[1].Score,
	}).Info("match finished")

	if r.onFinish != nil {
		r.onFinish(result)
	}
}
