package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	s := NewScore(-5)
	assert.Equal(t, 0, s.Best())

	var seen [][2]int
	unsubscribe := s.Subscribe(func(current, best int) {
		seen = append(seen, [2]int{current, best})
	})

	s.Add(10)
	s.Add(0)
	s.Add(40)
	assert.Equal(t, 50, s.Current())
	assert.True(t, s.UpdateBest())
	assert.False(t, s.UpdateBest(), "best only moves when beaten")
	assert.Equal(t, 50, s.Best())

	s.Reset()
	assert.Equal(t, 0, s.Current())
	assert.Equal(t, 50, s.Best())

	unsubscribe()
	s.Add(5)
	assert.Equal(t, [][2]int{{10, 0}, {50, 0}, {50, 50}, {0, 50}}, seen)
}

func TestScoreZeroValueSubscribe(t *testing.T) {
	var s Score
	calls := 0
	s.Subscribe(func(int, int) { calls++ })
	s.Add(1)
	assert.Equal(t, 1, calls)
}

func TestScoreObserversRunInSubscriptionOrder(t *testing.T) {
	s := NewScore(0)
	var order []int
	unsubscribe := make([]func(), 5)
	for i := range unsubscribe {
		i := i
		unsubscribe[i] = s.Subscribe(func(int, int) { order = append(order, i) })
	}

	for round := 0; round < 20; round++ {
		order = nil
		s.Add(1)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	}

	unsubscribe[2]()
	unsubscribe[2]()
	order = nil
	s.Add(1)
	assert.Equal(t, []int{0, 1, 3, 4}, order)
}
