package tetris

// Score keeps the current game's score and the best score seen by this
// process. Best never decreases.
type Score struct {
	current   int
	best      int
	nextID    int
	observers []observer
}

type observer struct {
	id int
	fn func(current, best int)
}

// NewScore starts with a best score loaded from elsewhere, usually a store.
func NewScore(best int) *Score {
	if best < 0 {
		best = 0
	}
	return &Score{best: best}
}

func (s *Score) Current() int {
	return s.current
}

func (s *Score) Best() int {
	return s.best
}

func (s *Score) Add(delta int) {
	if delta == 0 {
		return
	}
	s.current += delta
	s.notify()
}

// UpdateBest promotes the current score to best if it is higher. It is safe
// to call more than once per game.
func (s *Score) UpdateBest() bool {
	if s.current <= s.best {
		return false
	}
	s.best = s.current
	s.notify()
	return true
}

func (s *Score) Reset() {
	s.current = 0
	s.notify()
}

// Subscribe registers fn to be called after every change, after the
// observers subscribed before it. The returned function removes it.
func (s *Score) Subscribe(fn func(current, best int)) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Score) notify() {
	for _, o := range s.observers {
		o.fn(s.current, s.best)
	}
}
