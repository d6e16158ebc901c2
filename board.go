package tetris

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	DefaultWidth  = 10
	DefaultHeight = 25

	// HiddenRows at the top of the field are the spawn buffer. They are
	// playable but a renderer should skip them.
	HiddenRows = 2

	PyramidRows = 4

	holdColumn = 4
)

// Board owns the field, the active piece and the held piece. It is not safe
// for concurrent use; Game serializes access for timer-driven callers.
//
// Moves and rotations either succeed or are refused without side effects.
// A refused MoveDown is how a caller learns the piece has landed: it should
// then Lock, Detonate (for bombs), ClearLines and Spawn.
type Board struct {
	width, height int
	mode          Mode
	preview       int
	randomizer    *rand.Rand
	source        PieceSource
	ownsSource    bool
	bombThreshold int

	field   Matrix
	rotator Rotator
	x, y    int
	held    Piece
	canHold bool
}

type BoardOption func(*Board)

func WithSize(width, height int) BoardOption {
	if width < 4 || height < HiddenRows+PyramidRows {
		panic(fmt.Errorf("%w: minimal width x height is 4x%d, got %dx%d", ErrInvalidSize, HiddenRows+PyramidRows, width, height))
	}
	return func(board *Board) {
		board.width = width
		board.height = height
	}
}

// WithSource replaces the default bag sequencer. The board never replaces
// an injected source on NewGame.
func WithSource(source PieceSource) BoardOption {
	return func(board *Board) {
		board.source = source
		board.ownsSource = false
	}
}

func WithMode(mode Mode) BoardOption {
	return func(board *Board) {
		board.mode = mode
	}
}

// WithSeed seeds the pyramid colours and the default sequencer.
func WithSeed(seed int64) BoardOption {
	return func(board *Board) {
		board.randomizer = rand.New(rand.NewSource(seed))
	}
}

// WithPowerUpThreshold sets how many cleared lines earn a bomb in obstacle
// mode. It only affects the default sequencer.
func WithPowerUpThreshold(lines int) BoardOption {
	if lines < 1 {
		panic(fmt.Errorf("power-up threshold must be positive, got %d", lines))
	}
	return func(board *Board) {
		board.bombThreshold = lines
	}
}

func WithPreviewCount(n int) BoardOption {
	if n < 1 {
		panic(fmt.Errorf("preview count must be positive, got %d", n))
	}
	return func(board *Board) {
		board.preview = n
	}
}

// NewBoard returns an empty board with no active piece. Call NewGame (or
// Spawn) before moving anything.
func NewBoard(options ...BoardOption) *Board {
	board := &Board{
		width:         DefaultWidth,
		height:        DefaultHeight,
		mode:          ModeNormal,
		preview:       DefaultPreview,
		bombThreshold: DefaultBombThreshold,
		canHold:       true,
	}
	for _, opt := range options {
		opt(board)
	}

	if board.randomizer == nil {
		board.randomizer = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if board.source == nil {
		board.source = board.newSequencer()
		board.ownsSource = true
	}
	board.field = NewMatrix(board.height, board.width)

	return board
}

func (b *Board) newSequencer() *BagSequencer {
	return NewBagSequencer(
		b.randomizer.Int63(),
		WithPreview(b.preview),
		WithBombs(b.mode == ModeObstacle),
		WithBombThreshold(b.bombThreshold),
	)
}

func (b *Board) Width() int {
	return b.width
}

func (b *Board) Height() int {
	return b.height
}

func (b *Board) Mode() Mode {
	return b.mode
}

func (b *Board) Source() PieceSource {
	return b.source
}

// Field returns a copy of the locked cells.
func (b *Board) Field() Matrix {
	return b.field.Clone()
}

func (b *Board) Active() Placement {
	return Placement{
		Piece:    b.rotator.Piece(),
		Rotation: b.rotator.Index(),
		X:        b.x,
		Y:        b.y,
	}
}

func (b *Board) Held() Piece {
	return b.held
}

func (b *Board) CanHold() bool {
	return b.canHold
}

func (b *Board) fits(shape Matrix, x, y int) bool {
	return !Intersects(b.field, shape, x, y)
}

func (b *Board) move(dx, dy int) bool {
	if !b.fits(b.rotator.shape(), b.x+dx, b.y+dy) {
		return false
	}
	b.x += dx
	b.y += dy
	return true
}

// MoveDown drops the active piece one row. A refusal means the piece has
// landed, and makes hold available again for the next piece.
func (b *Board) MoveDown() bool {
	if b.move(0, 1) {
		return true
	}
	b.canHold = true
	return false
}

func (b *Board) MoveLeft() bool {
	return b.move(-1, 0)
}

func (b *Board) MoveRight() bool {
	return b.move(1, 0)
}

// Rotate advances the active piece to its next rotation state if that state
// fits at the current offset. There are no wall kicks.
func (b *Board) Rotate() bool {
	shape, next := b.rotator.peekNext()
	if !b.fits(shape, b.x, b.y) {
		return false
	}
	b.rotator.Commit(next)
	return true
}

// Spawn takes the next piece from the source and centers it on the top row.
// It returns true when the new piece already overlaps the field, which
// ends the game.
func (b *Board) Spawn() (over bool) {
	p := b.source.Next()
	b.rotator.Set(p)
	b.x = (b.width - p.Width()) / 2
	b.y = 0
	return !b.fits(b.rotator.shape(), b.x, b.y)
}

// Lock merges the active piece into the field. Bombs are never merged; the
// caller detonates them instead.
func (b *Board) Lock() {
	p := b.rotator.Piece()
	if p == NoPiece {
		panic(fmt.Errorf("%w: lock", ErrNoActivePiece))
	}
	if p.IsBomb() {
		return
	}
	b.field = Merge(b.field, b.rotator.shape(), b.x, b.y)
	b.rotator.Clear()
}

func (b *Board) ClearLines() ClearResult {
	result := ClearFullRows(b.field)
	b.field = result.Field
	result.Field = result.Field.Clone()
	return result
}

// Detonate clears the 3x3 area around the active bomb and returns the
// blocks it destroyed. The bomb itself is consumed.
func (b *Board) Detonate() []Point {
	p := b.rotator.Piece()
	if p == NoPiece {
		panic(fmt.Errorf("%w: detonate", ErrNoActivePiece))
	}
	if !p.IsBomb() {
		panic(fmt.Errorf("%w: got %s", ErrNotBomb, p))
	}
	destroyed, field := BlastRadius(b.field, b.x, b.y)
	b.field = field
	b.rotator.Clear()
	return destroyed
}

// ApplyGravity settles blocks left floating by a detonation.
func (b *Board) ApplyGravity() {
	b.field = ColumnGravity(b.field)
}

// Hold stashes the active piece. With an empty hold slot the next piece is
// spawned, otherwise the held piece is swapped in at a fixed column. Hold
// is refused until the piece that took its place has landed, and a swap is
// refused when the held piece does not fit. over reports a spawn conflict.
func (b *Board) Hold() (held bool, over bool) {
	if !b.canHold {
		return false, false
	}
	current := b.rotator.Piece()
	if current == NoPiece {
		panic(fmt.Errorf("%w: hold", ErrNoActivePiece))
	}

	if b.held == NoPiece {
		b.held = current
		b.canHold = false
		return true, b.Spawn()
	}

	if !b.fits(b.held.states()[0], holdColumn, 0) {
		return false, false
	}
	b.rotator.Set(b.held)
	b.held = current
	b.x = holdColumn
	b.y = 0
	b.canHold = false
	return true, false
}

// GhostY is the row the active piece would land on if dropped straight down.
func (b *Board) GhostY() int {
	shape := b.rotator.shape()
	y := b.y
	for b.fits(shape, b.x, y+1) {
		y++
	}
	return y
}

// NewGame empties the field, forgets the held piece and spawns the first
// piece. In obstacle mode the field starts with a pyramid.
func (b *Board) NewGame() (over bool) {
	if b.ownsSource {
		b.source = b.newSequencer()
	}
	b.source.ResetProgress()

	b.field = NewMatrix(b.height, b.width)
	if b.mode == ModeObstacle {
		b.field = b.pyramid()
	}
	b.held = NoPiece
	b.canHold = true
	b.rotator.Clear()

	return b.Spawn()
}

// pyramid builds a field with a stepped triangle of random colours resting
// on the floor. Its base never spans the full width so no row starts full.
func (b *Board) pyramid() Matrix {
	field := NewMatrix(b.height, b.width)
	base := 2*PyramidRows - 1
	if base > b.width-1 {
		base = b.width - 1
	}
	if base%2 == 0 {
		base--
	}
	for level := 0; level < PyramidRows; level++ {
		span := base - 2*level
		if span <= 0 {
			break
		}
		y := b.height - 1 - level
		start := (b.width - span) / 2
		for x := start; x < start+span; x++ {
			field[y][x] = 1 + b.randomizer.Intn(len(StandardPieces))
		}
	}
	return field
}

// RaiseFloor pushes the field up one row and fills the bottom row with
// color, leaving a hole at column gap. The active piece is lifted if the
// new row would overlap it. It returns true when blocks were pushed out of
// the top or the active piece has nowhere to go.
func (b *Board) RaiseFloor(gap, color int) bool {
	if gap < 0 || gap >= b.width {
		panic(fmt.Errorf("%w: garbage gap %d", ErrOutOfBounds, gap))
	}
	if color < int(PieceI) || color > int(PieceZ) {
		panic(fmt.Errorf("%w: garbage colour %d", ErrMalformedPiece, color))
	}

	overflow := false
	for _, v := range b.field[0] {
		if v != CellEmpty {
			overflow = true
			break
		}
	}

	raised := make(Matrix, 0, b.height)
	raised = append(raised, b.field[1:]...)
	row := make([]int, b.width)
	for x := range row {
		if x != gap {
			row[x] = color
		}
	}
	b.field = append(raised, row).Clone()

	if b.rotator.Piece() == NoPiece {
		return overflow
	}
	shape := b.rotator.shape()
	if b.fits(shape, b.x, b.y) {
		return overflow
	}
	if b.y > 0 && b.fits(shape, b.x, b.y-1) {
		b.y--
		return overflow
	}
	return true
}

// Render returns the field with the active piece drawn on top, clipped to
// the field.
func (b *Board) Render() Matrix {
	frame := b.field.Clone()
	if b.rotator.Piece() == NoPiece {
		return frame
	}
	for i, row := range b.rotator.shape() {
		for j, v := range row {
			x, y := b.x+j, b.y+i
			if v != CellEmpty && frame.inside(x, y) {
				frame[y][x] = v
			}
		}
	}
	return frame
}

func (b *Board) View() ViewData {
	next := b.source.Peek(b.preview)
	view := ViewData{
		Next: make([]Matrix, len(next)),
	}
	for i, p := range next {
		view.Next[i] = p.State(0)
	}
	if b.held != NoPiece {
		view.Hold = b.held.State(0)
	}

	if p := b.rotator.Piece(); p != NoPiece {
		view.Piece = p
		view.Shape = b.rotator.Shape()
		view.X = b.x
		view.Y = b.y
		view.GhostY = b.GhostY()
	}
	return view
}
