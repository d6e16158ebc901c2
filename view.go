package tetris

// ClearResult is produced once per lock by Board.ClearLines.
type ClearResult struct {
	Lines int
	Field Matrix
	Bonus int
}

// Placement describes the active piece. Piece is NoPiece between a lock and
// the next spawn.
type Placement struct {
	Piece    Piece
	Rotation int
	X, Y     int
}

// ViewData is everything a renderer needs for one frame besides the field.
// Every matrix is a private copy.
type ViewData struct {
	Piece  Piece
	Shape  Matrix
	X, Y   int
	GhostY int
	Next   []Matrix
	Hold   Matrix
}

// State is a full snapshot of a Game, suitable for gob encoding.
type State struct {
	Field  Matrix
	View   ViewData
	Score  int
	Best   int
	Lines  int
	Over   bool
	Paused bool
}
