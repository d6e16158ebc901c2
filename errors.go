package tetris

import "errors"

var (
	ErrInvalidSize     = errors.New("invalid board size")
	ErrOutOfBounds     = errors.New("cell out of bounds")
	ErrNoActivePiece   = errors.New("no active piece")
	ErrNotBomb         = errors.New("active piece is not a bomb")
	ErrInvalidState    = errors.New("invalid rotation state")
	ErrMalformedPiece  = errors.New("malformed piece")
	ErrSourceExhausted = errors.New("piece source exhausted")
	ErrUnknownMode     = errors.New("unknown game mode")
)
