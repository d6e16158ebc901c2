package tetris

import (
	"fmt"
	"math/rand"
)

const (
	DefaultPreview       = 3
	DefaultBombThreshold = 5
)

// PieceSource feeds pieces to a Board. Progress counts cleared lines toward
// the next bomb power-up.
type PieceSource interface {
	Next() Piece
	Peek(n int) []Piece
	AddProgress(lines int)
	Progress() int
	ResetProgress()
}

// BagSequencer deals the seven standard pieces in shuffled bags and keeps a
// preview queue topped up. With bombs enabled it hands out a bomb instead of
// the queue front once enough lines have been cleared.
type BagSequencer struct {
	randomizer    *rand.Rand
	bag           []Piece
	queue         []Piece
	preview       int
	bombs         bool
	bombThreshold int
	progress      int
}

type SequencerOption func(*BagSequencer)

func WithPreview(n int) SequencerOption {
	if n < 1 {
		panic(fmt.Errorf("preview size must be positive, got %d", n))
	}
	return func(s *BagSequencer) {
		s.preview = n
	}
}

func WithBombs(enabled bool) SequencerOption {
	return func(s *BagSequencer) {
		s.bombs = enabled
	}
}

func WithBombThreshold(lines int) SequencerOption {
	if lines < 1 {
		panic(fmt.Errorf("bomb threshold must be positive, got %d", lines))
	}
	return func(s *BagSequencer) {
		s.bombThreshold = lines
	}
}

func NewBagSequencer(seed int64, options ...SequencerOption) *BagSequencer {
	s := &BagSequencer{
		randomizer:    rand.New(rand.NewSource(seed)),
		preview:       DefaultPreview,
		bombThreshold: DefaultBombThreshold,
	}
	for _, opt := range options {
		opt(s)
	}
	s.fill(s.preview)
	return s
}

func (s *BagSequencer) refillBag() {
	s.bag = append(s.bag[:0], StandardPieces[:]...)
	s.randomizer.Shuffle(len(s.bag), func(i, j int) {
		s.bag[i], s.bag[j] = s.bag[j], s.bag[i]
	})
}

func (s *BagSequencer) fill(n int) {
	for len(s.queue) < n {
		if len(s.bag) == 0 {
			s.refillBag()
		}
		s.queue = append(s.queue, s.bag[0])
		s.bag = s.bag[1:]
	}
}

func (s *BagSequencer) Next() Piece {
	if s.bombs && s.progress >= s.bombThreshold {
		s.progress = 0
		return PieceBomb
	}
	s.fill(1)
	p := s.queue[0]
	s.queue = s.queue[1:]
	s.fill(s.preview)
	return p
}

func (s *BagSequencer) Peek(n int) []Piece {
	s.fill(n)
	out := make([]Piece, n)
	copy(out, s.queue)
	return out
}

func (s *BagSequencer) AddProgress(lines int) {
	s.progress += lines
}

func (s *BagSequencer) Progress() int {
	return s.progress
}

func (s *BagSequencer) ResetProgress() {
	s.progress = 0
}

// BombReady reports whether the next call to Next yields a bomb.
func (s *BagSequencer) BombReady() bool {
	return s.bombs && s.progress >= s.bombThreshold
}

// QueueSource replays a fixed list of pieces, mostly for tests and replays.
type QueueSource struct {
	queue    []Piece
	progress int
}

func NewQueueSource(pieces ...Piece) *QueueSource {
	q := &QueueSource{}
	q.Push(pieces...)
	return q
}

func (q *QueueSource) Push(pieces ...Piece) {
	for _, p := range pieces {
		if !p.Valid() {
			panic(fmt.Errorf("%w: cannot queue %s", ErrMalformedPiece, p))
		}
	}
	q.queue = append(q.queue, pieces...)
}

func (q *QueueSource) Next() Piece {
	if len(q.queue) == 0 {
		panic(ErrSourceExhausted)
	}
	p := q.queue[0]
	q.queue = q.queue[1:]
	return p
}

// Peek returns at most n queued pieces.
func (q *QueueSource) Peek(n int) []Piece {
	if n > len(q.queue) {
		n = len(q.queue)
	}
	out := make([]Piece, n)
	copy(out, q.queue)
	return out
}

func (q *QueueSource) Len() int {
	return len(q.queue)
}

func (q *QueueSource) AddProgress(lines int) {
	q.progress += lines
}

func (q *QueueSource) Progress() int {
	return q.progress
}

func (q *QueueSource) ResetProgress() {
	q.progress = 0
}
