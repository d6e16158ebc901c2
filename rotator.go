package tetris

import "fmt"

// Rotator tracks the active piece and its current rotation state. Rotation
// is two-step: PeekNext computes the candidate, Commit applies it once the
// caller has checked it fits.
type Rotator struct {
	piece Piece
	index int
}

func (r *Rotator) Set(p Piece) {
	if !p.Valid() {
		panic(fmt.Errorf("%w: cannot rotate %s", ErrMalformedPiece, p))
	}
	r.piece = p
	r.index = 0
}

func (r *Rotator) Clear() {
	r.piece = NoPiece
	r.index = 0
}

func (r *Rotator) Piece() Piece {
	return r.piece
}

func (r *Rotator) Index() int {
	return r.index
}

func (r *Rotator) Shape() Matrix {
	return r.shape().Clone()
}

// PeekNext returns the following rotation state and its index without
// changing the current one.
func (r *Rotator) PeekNext() (Matrix, int) {
	shape, next := r.peekNext()
	return shape.Clone(), next
}

func (r *Rotator) shape() Matrix {
	r.mustHavePiece()
	return r.piece.states()[r.index]
}

func (r *Rotator) peekNext() (Matrix, int) {
	r.mustHavePiece()
	states := r.piece.states()
	next := (r.index + 1) % len(states)
	return states[next], next
}

func (r *Rotator) Commit(index int) {
	r.mustHavePiece()
	if index < 0 || index >= r.piece.StateCount() {
		panic(fmt.Errorf("%w: %s has no state %d", ErrInvalidState, r.piece, index))
	}
	r.index = index
}

func (r *Rotator) mustHavePiece() {
	if r.piece == NoPiece {
		panic(ErrNoActivePiece)
	}
}
