package ui

import (
	"fmt"
	"sync"

	"github.com/JoelOtter/termloop"

	tetris "github.com/jauhararifin/tetris-engine"
)

const (
	previewBox = 5
	panelGap   = 3
	holdOffset = 8
)

// StateSource is anything that can produce a frame. *tetris.Game is one.
type StateSource interface {
	GetState() tetris.State
}

// SharedState holds the latest snapshot received from a server.
type SharedState struct {
	m     sync.Mutex
	state tetris.State
}

func (s *SharedState) Set(state tetris.State) {
	s.m.Lock()
	defer s.m.Unlock()
	s.state = state
}

func (s *SharedState) GetState() tetris.State {
	s.m.Lock()
	defer s.m.Unlock()
	return s.state
}

type glyph struct {
	x, y int
	cell termloop.Cell
}

// BoardView draws one board with its preview, hold slot and score panel,
// and turns key presses into actions.
type BoardView struct {
	x, y   int
	title  string
	source StateSource

	onAction  func(tetris.Action)
	onPause   func()
	onRestart func()

	titleText  *termloop.Text
	scoreText  *termloop.Text
	bestText   *termloop.Text
	linesText  *termloop.Text
	statusText *termloop.Text
}

type ViewOption func(*BoardView)

func WithTitle(title string) ViewOption {
	return func(v *BoardView) {
		v.title = title
	}
}

// WithInput makes the view interactive. Views without input only render.
func WithInput(onAction func(tetris.Action)) ViewOption {
	return func(v *BoardView) {
		v.onAction = onAction
	}
}

func WithControls(onPause, onRestart func()) ViewOption {
	return func(v *BoardView) {
		v.onPause = onPause
		v.onRestart = onRestart
	}
}

func NewBoardView(x, y int, source StateSource, options ...ViewOption) *BoardView {
	v := &BoardView{
		x:      x,
		y:      y,
		source: source,
	}
	for _, opt := range options {
		opt(v)
	}

	v.titleText = termloop.NewText(x, y-1, v.title, termloop.ColorWhite, termloop.ColorDefault)
	v.scoreText = termloop.NewText(0, 0, "", termloop.ColorWhite, termloop.ColorDefault)
	v.bestText = termloop.NewText(0, 0, "", termloop.ColorWhite, termloop.ColorDefault)
	v.linesText = termloop.NewText(0, 0, "", termloop.ColorWhite, termloop.ColorDefault)
	v.statusText = termloop.NewText(0, 0, "", termloop.ColorRed, termloop.ColorDefault)
	return v
}

// textY is the first row below the preview column.
func (v *BoardView) textY(state tetris.State) int {
	previews := len(state.View.Next)
	if previews == 0 {
		previews = 1
	}
	return v.y + previews*previewBox + 2
}

// ViewWidth is how many columns a view of a board that many cells wide
// covers, panel text included.
func ViewWidth(boardWidth int) int {
	return boardWidth + panelGap + holdOffset + previewBox + 4
}

func (v *BoardView) panelX(state tetris.State) int {
	return v.x + state.Field.Width() + panelGap
}

func (v *BoardView) Tick(ev termloop.Event) {
	if ev.Type != termloop.EventKey {
		return
	}
	if action, ok := actionFor(ev); ok && v.onAction != nil {
		v.onAction(action)
		return
	}
	switch ev.Ch {
	case 'p', 'P':
		if v.onPause != nil {
			v.onPause()
		}
	case 'r', 'R':
		if v.onRestart != nil {
			v.onRestart()
		}
	}
}

func (v *BoardView) Draw(s *termloop.Screen) {
	state := v.source.GetState()
	if state.Field == nil {
		return
	}
	for _, g := range v.glyphs(state) {
		cell := g.cell
		s.RenderCell(g.x, g.y, &cell)
	}

	px, ty := v.panelX(state), v.textY(state)
	v.scoreText.SetPosition(px, ty)
	v.bestText.SetPosition(px, ty+1)
	v.linesText.SetPosition(px, ty+2)
	v.statusText.SetPosition(px, ty+4)

	v.scoreText.SetText(fmt.Sprintf("Score: %d", state.Score))
	v.bestText.SetText(fmt.Sprintf("Best:  %d", state.Best))
	v.linesText.SetText(fmt.Sprintf("Lines: %d", state.Lines))
	v.statusText.SetText(status(state))
	for _, t := range []*termloop.Text{v.titleText, v.scoreText, v.bestText, v.linesText, v.statusText} {
		t.Draw(s)
	}
}

func status(state tetris.State) string {
	switch {
	case state.Over:
		return "GAME OVER"
	case state.Paused:
		return "PAUSED"
	}
	return ""
}

// glyphs lays out everything except the text lines. The hidden spawn rows
// are not drawn.
func (v *BoardView) glyphs(state tetris.State) []glyph {
	width := state.Field.Width()
	visible := state.Field.Height() - tetris.HiddenRows
	var out []glyph

	out = append(out, frame(v.x, v.y, width+2, visible+2)...)

	ghost := ghostCells(state)
	for row := 0; row < visible; row++ {
		fy := row + tetris.HiddenRows
		for col := 0; col < width; col++ {
			cell := emptyCell
			if value := state.Field[fy][col]; value != tetris.CellEmpty {
				cell = blockCell(value)
			} else if ghost[tetris.Point{X: col, Y: fy}] {
				cell = ghostCell
			}
			out = append(out, glyph{x: v.x + 1 + col, y: v.y + 1 + row, cell: cell})
		}
	}

	px := v.panelX(state)
	for i, next := range state.View.Next {
		out = append(out, piece(px+1, v.y+1+i*previewBox, next)...)
	}
	out = append(out, frame(px, v.y, previewBox+1, len(state.View.Next)*previewBox+1)...)

	hx := px + holdOffset
	out = append(out, frame(hx, v.y, previewBox+1, previewBox+1)...)
	if state.View.Hold != nil {
		out = append(out, piece(hx+1, v.y+1, state.View.Hold)...)
	}
	return out
}

func ghostCells(state tetris.State) map[tetris.Point]bool {
	cells := make(map[tetris.Point]bool)
	view := state.View
	if view.Piece == tetris.NoPiece || state.Over {
		return cells
	}
	for i, row := range view.Shape {
		for j, value := range row {
			if value != tetris.CellEmpty {
				cells[tetris.Point{X: view.X + j, Y: view.GhostY + i}] = true
			}
		}
	}
	return cells
}

func piece(x, y int, shape tetris.Matrix) []glyph {
	var out []glyph
	for i, row := range shape {
		for j, value := range row {
			if value != tetris.CellEmpty {
				out = append(out, glyph{x: x + j, y: y + i, cell: blockCell(value)})
			}
		}
	}
	return out
}

func frame(x, y, width, height int) []glyph {
	var out []glyph
	for i := 0; i < width; i++ {
		out = append(out, glyph{x: x + i, y: y, cell: borderCell})
		out = append(out, glyph{x: x + i, y: y + height - 1, cell: borderCell})
	}
	for i := 1; i < height-1; i++ {
		out = append(out, glyph{x: x, y: y + i, cell: borderCell})
		out = append(out, glyph{x: x + width - 1, y: y + i, cell: borderCell})
	}
	return out
}
