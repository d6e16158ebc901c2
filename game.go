package tetris

import (
	"context"
	"sync"
	"time"
)

type Action int

const (
	ActionTick Action = iota
	ActionGoLeft
	ActionGoRight
	ActionRotate
	ActionSoftDrop
	ActionSmash
	ActionHold
)

var actionNames = [...]string{"tick", "left", "right", "rotate", "soft-drop", "smash", "hold"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

const (
	SoftDropPoints  = 1
	HardDropPoints  = 2
	BombBlockPoints = 50
)

type EventType int

const (
	EventLinesCleared EventType = iota
	EventDetonated
	EventGameOver
)

func (t EventType) String() string {
	switch t {
	case EventLinesCleared:
		return "lines-cleared"
	case EventDetonated:
		return "detonated"
	case EventGameOver:
		return "game-over"
	}
	return "unknown"
}

type Event struct {
	Type      EventType
	Clear     ClearResult
	Destroyed []Point
	Score     int
	Best      int
	Lines     int
}

// EventHandler is called with the game's lock held. A handler must not call
// back into the Game that emitted the event; hand work off to another
// goroutine instead.
type EventHandler interface {
	OnEvent(ev Event)
}

type EventHandlerFunc func(ev Event)

func (f EventHandlerFunc) OnEvent(ev Event) {
	f(ev)
}

// Game drives a Board the way an interactive front end does: it runs the
// lock sequence when a piece lands, applies the scoring rules and stops
// accepting actions after a game over. Unlike Board it is safe to call
// from a ticker goroutine and an input goroutine at once.
type Game struct {
	m       *sync.Mutex
	board   *Board
	score   *Score
	handler EventHandler
	drop    func(mode Mode, lines int) time.Duration

	lines  int
	isOver bool
	paused bool
}

type GameOption func(*Game)

func WithBoard(board *Board) GameOption {
	return func(g *Game) {
		g.board = board
	}
}

func WithScore(score *Score) GameOption {
	return func(g *Game) {
		g.score = score
	}
}

func WithEventHandler(handler EventHandler) GameOption {
	return func(g *Game) {
		g.handler = handler
	}
}

// WithDropSchedule replaces DropInterval as the gravity period used by Run.
func WithDropSchedule(schedule func(mode Mode, lines int) time.Duration) GameOption {
	return func(g *Game) {
		g.drop = schedule
	}
}

// NewGame builds a Game and starts the first round.
func NewGame(options ...GameOption) *Game {
	g := &Game{
		m: &sync.Mutex{},
	}
	for _, opt := range options {
		opt(g)
	}
	if g.board == nil {
		g.board = NewBoard()
	}
	if g.score == nil {
		g.score = NewScore(0)
	}
	if g.drop == nil {
		g.drop = DropInterval
	}

	g.restart()
	return g
}

func (g *Game) Restart() {
	g.m.Lock()
	defer g.m.Unlock()
	g.restart()
}

func (g *Game) restart() {
	g.score.Reset()
	g.lines = 0
	g.paused = false
	g.isOver = false
	if g.board.NewGame() {
		g.gameOver()
	}
}

// Apply performs one action and reports whether it changed the game.
func (g *Game) Apply(action Action) bool {
	g.m.Lock()
	defer g.m.Unlock()

	if g.isOver || g.paused {
		return false
	}

	switch action {
	case ActionTick:
		if !g.board.MoveDown() {
			g.settle()
		}
		return true
	case ActionSoftDrop:
		if g.board.MoveDown() {
			g.score.Add(SoftDropPoints)
		} else {
			g.settle()
		}
		return true
	case ActionGoLeft:
		return g.board.MoveLeft()
	case ActionGoRight:
		return g.board.MoveRight()
	case ActionRotate:
		return g.board.Rotate()
	case ActionSmash:
		g.applySmash()
		return true
	case ActionHold:
		held, over := g.board.Hold()
		if over {
			g.gameOver()
		}
		return held
	}
	return false
}

func (g *Game) applySmash() {
	distance := 0
	for g.board.MoveDown() {
		distance++
	}
	g.score.Add(distance * HardDropPoints)
	g.settle()
}

// settle runs the lock sequence for a piece that can no longer fall.
func (g *Game) settle() {
	piece := g.board.Active().Piece
	g.board.Lock()

	if piece.IsBomb() {
		destroyed := g.board.Detonate()
		g.score.Add(len(destroyed) * BombBlockPoints)
		g.emit(Event{Type: EventDetonated, Destroyed: destroyed})
		g.board.ApplyGravity()
	}

	result := g.board.ClearLines()
	if result.Lines > 0 {
		g.lines += result.Lines
		g.score.Add(result.Bonus)
		if g.board.Mode() == ModeObstacle {
			g.board.Source().AddProgress(result.Lines)
		}
		g.emit(Event{Type: EventLinesCleared, Clear: result})
	}

	if g.board.Spawn() {
		g.gameOver()
	}
}

func (g *Game) gameOver() {
	g.isOver = true
	g.score.UpdateBest()
	g.emit(Event{Type: EventGameOver})
}

func (g *Game) emit(ev Event) {
	if g.handler == nil {
		return
	}
	ev.Score = g.score.Current()
	ev.Best = g.score.Best()
	ev.Lines = g.lines
	g.handler.OnEvent(ev)
}

// AddGarbage raises the floor by one row with a hole at gap. A versus
// opponent's line clears arrive here.
func (g *Game) AddGarbage(gap, color int) {
	g.m.Lock()
	defer g.m.Unlock()

	if g.isOver {
		return
	}
	if g.board.RaiseFloor(gap, color) {
		g.gameOver()
	}
}

// Run applies gravity ticks until ctx is done. The period is recomputed
// after every tick so speed-curve games accelerate as lines are cleared.
// Ticks on a paused or finished game are ignored, so Run can keep going
// across Restart.
func (g *Game) Run(ctx context.Context) error {
	timer := time.NewTimer(g.dropInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			g.Apply(ActionTick)
			timer.Reset(g.dropInterval())
		}
	}
}

func (g *Game) dropInterval() time.Duration {
	g.m.Lock()
	defer g.m.Unlock()
	return g.drop(g.board.Mode(), g.lines)
}

func (g *Game) TogglePause() bool {
	g.m.Lock()
	defer g.m.Unlock()
	if !g.isOver {
		g.paused = !g.paused
	}
	return g.paused
}

func (g *Game) IsOver() bool {
	g.m.Lock()
	defer g.m.Unlock()
	return g.isOver
}

func (g *Game) Lines() int {
	g.m.Lock()
	defer g.m.Unlock()
	return g.lines
}

func (g *Game) Mode() Mode {
	return g.board.Mode()
}

func (g *Game) Width() int {
	return g.board.Width()
}

func (g *Game) Height() int {
	return g.board.Height()
}

func (g *Game) GetState() State {
	g.m.Lock()
	defer g.m.Unlock()

	return State{
		Field:  g.board.Render(),
		View:   g.board.View(),
		Score:  g.score.Current(),
		Best:   g.score.Best(),
		Lines:  g.lines,
		Over:   g.isOver,
		Paused: g.paused,
	}
}
