package multiplayer

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tetris "github.com/jauhararifin/tetris-engine"
)

func startServer(t *testing.T, options ...ServerOption) *Server {
	t.Helper()
	options = append([]ServerOption{WithRoomSettings(testSettings())}, options...)
	s, err := Listen("127.0.0.1:0", options...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return s
}

func dial(t *testing.T, s *Server, name, room string) *Client {
	t.Helper()
	c, err := Dial(s.Addr().String(), name, room)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// peer is a bound local address for joins made without a client.
func peer(t *testing.T) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn.LocalAddr().(*net.UDPAddr)
}

func TestServerMatch(t *testing.T) {
	results := make(chan Result, 1)
	s := startServer(t, WithResultHandler(func(r Result) { results <- r }))
	ana := dial(t, s, "Ana", "r1")
	bo := dial(t, s, "Bo", "r1")

	var wg sync.WaitGroup
	inits := make([]*InitGameMessage, 2)
	errs := make([]error, 2)
	for i, c := range []*Client{ana, bo} {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			inits[i], errs[i] = c.Join(3 * time.Second)
		}()
		// The first player must be seated before the second arrives.
		time.Sleep(50 * time.Millisecond)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, map[string]string{ana.ID(): "Ana", bo.ID(): "Bo"}, inits[0].Players)
	assert.Equal(t, inits[0], inits[1])

	for i := 0; i < 200; i++ {
		require.NoError(t, ana.SendAction(tetris.ActionSmash))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var last *GameStateUpdateMessage
	require.NoError(t, bo.Listen(ctx, func(update *GameStateUpdateMessage) {
		last = update
	}))
	require.NotNil(t, last)
	assert.True(t, last.Finished)
	assert.Equal(t, bo.ID(), last.Winner)

	select {
	case r := <-results:
		assert.Equal(t, "r1", r.Room)
		assert.Equal(t, bo.ID(), r.Winner)
	case <-time.After(time.Second):
		t.Fatal("no result reported")
	}

	s.m.Lock()
	defer s.m.Unlock()
	assert.Nil(t, s.rooms["r1"], "finished rooms are dropped")
	assert.Empty(t, s.userAddr)
	assert.Empty(t, s.userRoom)
}

func TestServerRepeatedJoinKeepsSeat(t *testing.T) {
	s, err := Listen("127.0.0.1:0", WithRoomSettings(testSettings()))
	require.NoError(t, err)
	defer s.conn.Close()
	defer s.closeRooms()

	ana, bo := peer(t), peer(t)
	s.OnUserJoin(JoinMessage{ID: "a", Name: "Ana", Room: "r1"}, ana)
	s.OnUserJoin(JoinMessage{ID: "b", Name: "Bo", Room: "r1"}, bo)
	s.OnUserJoin(JoinMessage{ID: "b", Name: "Bo", Room: "r1"}, bo)

	require.NoError(t, s.Send("b", []byte("ping")))
	s.m.Lock()
	assert.Equal(t, "r1", s.userRoom["b"])
	r1 := s.rooms["r1"]
	s.m.Unlock()
	require.NotNil(t, r1)
	assert.Len(t, r1.Players(), 2)
	assert.True(t, r1.Started())

	// A seated player knocking on another full room keeps the first seat.
	s.OnUserJoin(JoinMessage{ID: "c", Name: "Cy", Room: "r2"}, peer(t))
	s.OnUserJoin(JoinMessage{ID: "d", Name: "Di", Room: "r2"}, peer(t))
	s.OnUserJoin(JoinMessage{ID: "a", Name: "Ana", Room: "r2"}, ana)

	require.NoError(t, s.Send("a", []byte("ping")))
	s.m.Lock()
	assert.Equal(t, "r1", s.userRoom["a"])
	assert.Equal(t, ana, s.userAddr["a"])
	s.m.Unlock()
	assert.Len(t, r1.Players(), 2)

	// A stranger refused by a full room is forgotten.
	s.OnUserJoin(JoinMessage{ID: "e", Name: "Ed", Room: "r1"}, peer(t))
	assert.ErrorIs(t, s.Send("e", []byte("ping")), ErrNoSuchPlayer)
}

func TestServerJoinOtherRoomGivesUpSeat(t *testing.T) {
	s, err := Listen("127.0.0.1:0", WithRoomSettings(testSettings()))
	require.NoError(t, err)
	defer s.conn.Close()
	defer s.closeRooms()

	ana := peer(t)
	s.OnUserJoin(JoinMessage{ID: "a", Name: "Ana", Room: "old"}, ana)
	s.OnUserJoin(JoinMessage{ID: "a", Name: "Ana", Room: "new"}, ana)

	s.m.Lock()
	defer s.m.Unlock()
	assert.Nil(t, s.rooms["old"])
	require.NotNil(t, s.rooms["new"])
	assert.Equal(t, "new", s.userRoom["a"])
}

func TestServerRejectsThirdPlayer(t *testing.T) {
	s := startServer(t)
	var wg sync.WaitGroup
	for _, name := range []string{"Ana", "Bo"} {
		c := dial(t, s, name, "full")
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Join(3 * time.Second)
		}()
		time.Sleep(50 * time.Millisecond)
	}
	wg.Wait()

	cy := dial(t, s, "Cy", "full")
	_, err := cy.Join(3 * time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected), "got %v", err)
	assert.Contains(t, err.Error(), ErrRoomFull.Error())
}

func TestServerDropsEmptyRooms(t *testing.T) {
	s := startServer(t)
	c := dial(t, s, "Ana", "solo")
	require.NoError(t, c.send(UserMessage{JoinMessage: &JoinMessage{ID: c.ID(), Name: "Ana", Room: "solo"}}))

	require.Eventually(t, func() bool {
		s.m.Lock()
		defer s.m.Unlock()
		return s.rooms["solo"] != nil
	}, time.Second, time.Millisecond)

	require.NoError(t, c.Leave())
	require.Eventually(t, func() bool {
		s.m.Lock()
		defer s.m.Unlock()
		return s.rooms["solo"] == nil && len(s.userAddr) == 0
	}, time.Second, time.Millisecond)
}
