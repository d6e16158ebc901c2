package ui

import (
	"github.com/JoelOtter/termloop"

	tetris "github.com/jauhararifin/tetris-engine"
)

var (
	borderCell = termloop.Cell{Fg: termloop.ColorWhite, Bg: termloop.ColorBlack, Ch: '+'}
	emptyCell  = termloop.Cell{Fg: termloop.ColorWhite, Bg: termloop.ColorBlack, Ch: ' '}
	ghostCell  = termloop.Cell{Fg: termloop.ColorWhite, Bg: termloop.ColorBlack, Ch: '.'}
)

// termbox has no orange; L is drawn white.
var pieceColors = map[int]termloop.Attr{
	int(tetris.PieceI):    termloop.ColorCyan,
	int(tetris.PieceJ):    termloop.ColorBlue,
	int(tetris.PieceL):    termloop.ColorWhite,
	int(tetris.PieceO):    termloop.ColorYellow,
	int(tetris.PieceS):    termloop.ColorGreen,
	int(tetris.PieceT):    termloop.ColorMagenta,
	int(tetris.PieceZ):    termloop.ColorRed,
	int(tetris.PieceBomb): termloop.ColorRed,
}

func blockCell(value int) termloop.Cell {
	fg, ok := pieceColors[value]
	if !ok {
		fg = termloop.ColorWhite
	}
	ch := '#'
	if value == tetris.BombCell {
		ch = '*'
	}
	return termloop.Cell{Fg: fg | termloop.AttrBold, Bg: termloop.ColorBlack, Ch: ch}
}

func actionFor(ev termloop.Event) (tetris.Action, bool) {
	switch ev.Key {
	case termloop.KeyArrowLeft:
		return tetris.ActionGoLeft, true
	case termloop.KeyArrowRight:
		return tetris.ActionGoRight, true
	case termloop.KeyArrowUp:
		return tetris.ActionRotate, true
	case termloop.KeyArrowDown:
		return tetris.ActionSoftDrop, true
	case termloop.KeySpace:
		return tetris.ActionSmash, true
	}
	switch ev.Ch {
	case 'a', 'A':
		return tetris.ActionGoLeft, true
	case 'd', 'D':
		return tetris.ActionGoRight, true
	case 'w', 'W':
		return tetris.ActionRotate, true
	case 's', 'S':
		return tetris.ActionSoftDrop, true
	case 'c', 'C':
		return tetris.ActionHold, true
	}
	return 0, false
}
