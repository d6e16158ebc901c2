package tetris

import "fmt"

// Piece identifies a shape family. Its value is also the cell value the
// piece leaves in the field.
type Piece int

const (
	NoPiece Piece = iota
	PieceI
	PieceJ
	PieceL
	PieceO
	PieceS
	PieceT
	PieceZ
	PieceBomb
)

var StandardPieces = [...]Piece{PieceI, PieceJ, PieceL, PieceO, PieceS, PieceT, PieceZ}

var pieceNames = [...]string{"none", "I", "J", "L", "O", "S", "T", "Z", "bomb"}

var catalog = [...][]Matrix{
	PieceI: {
		{{0, 0, 0, 0}, {1, 1, 1, 1}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 0, 0}, {0, 1, 0, 0}, {0, 1, 0, 0}, {0, 1, 0, 0}},
	},
	PieceJ: {
		{{0, 0, 0, 0}, {2, 2, 2, 0}, {0, 0, 2, 0}, {0, 0, 0, 0}},
		{{0, 0, 0, 0}, {0, 2, 2, 0}, {0, 2, 0, 0}, {0, 2, 0, 0}},
		{{0, 0, 0, 0}, {0, 2, 0, 0}, {0, 2, 2, 2}, {0, 0, 0, 0}},
		{{0, 0, 2, 0}, {0, 0, 2, 0}, {0, 2, 2, 0}, {0, 0, 0, 0}},
	},
	PieceL: {
		{{0, 0, 0, 0}, {0, 3, 3, 3}, {0, 3, 0, 0}, {0, 0, 0, 0}},
		{{0, 0, 0, 0}, {0, 3, 3, 0}, {0, 0, 3, 0}, {0, 0, 3, 0}},
		{{0, 0, 0, 0}, {0, 0, 3, 0}, {3, 3, 3, 0}, {0, 0, 0, 0}},
		{{0, 3, 0, 0}, {0, 3, 0, 0}, {0, 3, 3, 0}, {0, 0, 0, 0}},
	},
	PieceO: {
		{{0, 0, 0, 0}, {0, 4, 4, 0}, {0, 4, 4, 0}, {0, 0, 0, 0}},
	},
	PieceS: {
		{{0, 0, 0, 0}, {0, 5, 5, 0}, {5, 5, 0, 0}, {0, 0, 0, 0}},
		{{5, 0, 0, 0}, {5, 5, 0, 0}, {0, 5, 0, 0}, {0, 0, 0, 0}},
	},
	PieceT: {
		{{0, 0, 0, 0}, {6, 6, 6, 0}, {0, 6, 0, 0}, {0, 0, 0, 0}},
		{{0, 6, 0, 0}, {0, 6, 6, 0}, {0, 6, 0, 0}, {0, 0, 0, 0}},
		{{0, 6, 0, 0}, {6, 6, 6, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 6, 0, 0}, {6, 6, 0, 0}, {0, 6, 0, 0}, {0, 0, 0, 0}},
	},
	PieceZ: {
		{{0, 0, 0, 0}, {7, 7, 0, 0}, {0, 7, 7, 0}, {0, 0, 0, 0}},
		{{0, 7, 0, 0}, {7, 7, 0, 0}, {7, 0, 0, 0}, {0, 0, 0, 0}},
	},
	PieceBomb: {
		{{BombCell}},
	},
}

func init() {
	for p := PieceI; p <= PieceBomb; p++ {
		if err := validatePiece(p, catalog[p]); err != nil {
			panic(err)
		}
	}
}

func validatePiece(p Piece, states []Matrix) error {
	if len(states) == 0 {
		return fmt.Errorf("%w: %s has no rotation states", ErrMalformedPiece, p)
	}
	cells := states[0].Count()
	for i, s := range states {
		if s.Height() == 0 || s.Height() != s.Width() {
			return fmt.Errorf("%w: %s state %d is not square", ErrMalformedPiece, p, i)
		}
		if s.Count() != cells {
			return fmt.Errorf("%w: %s state %d has %d cells, want %d", ErrMalformedPiece, p, i, s.Count(), cells)
		}
		for _, row := range s {
			for _, v := range row {
				if v != CellEmpty && v != int(p) {
					return fmt.Errorf("%w: %s state %d holds cell value %d", ErrMalformedPiece, p, i, v)
				}
			}
		}
	}
	return nil
}

func (p Piece) Valid() bool {
	return p >= PieceI && p <= PieceBomb
}

func (p Piece) IsBomb() bool {
	return p == PieceBomb
}

func (p Piece) String() string {
	if p < NoPiece || int(p) >= len(pieceNames) {
		return fmt.Sprintf("Piece(%d)", int(p))
	}
	return pieceNames[p]
}

func (p Piece) StateCount() int {
	return len(p.states())
}

// State returns a copy of rotation state i.
func (p Piece) State(i int) Matrix {
	states := p.states()
	if i < 0 || i >= len(states) {
		panic(fmt.Errorf("%w: %s has no state %d", ErrInvalidState, p, i))
	}
	return states[i].Clone()
}

// States returns copies of every rotation state in rotation order.
func (p Piece) States() []Matrix {
	states := p.states()
	out := make([]Matrix, len(states))
	for i, s := range states {
		out[i] = s.Clone()
	}
	return out
}

// Width is the side of the piece's bounding box, used to center spawns.
func (p Piece) Width() int {
	return p.states()[0].Width()
}

func (p Piece) states() []Matrix {
	if !p.Valid() {
		panic(fmt.Errorf("%w: %s", ErrMalformedPiece, p))
	}
	return catalog[p]
}
