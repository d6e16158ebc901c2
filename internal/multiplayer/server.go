package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Server routes datagrams between players and their rooms. Rooms are
// created on the first join and dropped when their last player leaves.
type Server struct {
	conn     *net.UDPConn
	log      logrus.FieldLogger
	settings Settings
	onFinish func(Result)

	m        sync.Mutex
	rooms    map[string]*Room
	userAddr map[string]*net.UDPAddr
	userRoom map[string]string
}

type ServerOption func(*Server)

func WithRoomSettings(settings Settings) ServerOption {
	return func(s *Server) {
		s.settings = settings
	}
}

func WithServerLogger(log logrus.FieldLogger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

func WithResultHandler(fn func(Result)) ServerOption {
	return func(s *Server) {
		s.onFinish = fn
	}
}

func Listen(addr string, options ...ServerOption) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &Server{
		conn:     conn,
		log:      logrus.StandardLogger(),
		settings: DefaultSettings(),
		rooms:    make(map[string]*Room),
		userAddr: make(map[string]*net.UDPAddr),
		userRoom: make(map[string]string),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Serve reads datagrams until ctx is done, then stops every room and
// closes the socket.
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return s.conn.Close()
	})
	g.Go(func() error {
		s.log.WithField("addr", s.Addr()).Info("server listening")
		buff := make([]byte, MaxPacketSize)
		for {
			n, addr, err := s.conn.ReadFromUDP(buff)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				s.log.WithError(err).Warn("cannot read from udp")
				continue
			}
			s.handle(buff[:n], addr)
		}
	})

	err := g.Wait()
	s.closeRooms()
	return err
}

func (s *Server) handle(packet []byte, addr *net.UDPAddr) {
	userMsg := UserMessage{}
	if err := decode(packet, &userMsg); err != nil {
		s.log.WithError(err).WithField("addr", addr).Warn("cannot parse user message")
		return
	}

	switch {
	case userMsg.JoinMessage != nil:
		s.OnUserJoin(*userMsg.JoinMessage, addr)
	case userMsg.LeaveMessage != nil:
		s.OnUserLeave(userMsg.LeaveMessage.ID)
	case userMsg.RoomMessage != nil:
		s.OnUserMessage(userMsg.RoomMessage.ID, userMsg.RoomMessage.Message)
	}
}

// OnUserJoin seats a player. A refused join leaves any seat the player
// already holds untouched, and joining a different room gives up the old
// seat.
func (s *Server) OnUserJoin(join JoinMessage, addr *net.UDPAddr) {
	s.m.Lock()
	r, ok := s.rooms[join.Room]
	if !ok {
		r = s.newRoom(join.Room)
		s.rooms[join.Room] = r
	}
	prevRoom, seated := s.userRoom[join.ID]
	prevAddr := s.userAddr[join.ID]
	// The room greets both players while seating the second one, so the
	// address must be known before the join is accepted.
	s.userAddr[join.ID] = addr
	s.m.Unlock()

	log := s.log.WithFields(logrus.Fields{"player": join.Name, "room": join.Room, "addr": addr})
	if err := r.OnPlayerJoin(Player{ID: join.ID, Name: join.Name}); err != nil {
		log.WithError(err).Warn("join refused")
		s.reject(addr, err)

		s.m.Lock()
		if seated {
			s.userAddr[join.ID] = prevAddr
		} else {
			delete(s.userAddr, join.ID)
		}
		s.m.Unlock()
		s.dropIfEmpty(r)
		return
	}

	s.m.Lock()
	s.userRoom[join.ID] = join.Room
	old := s.rooms[prevRoom]
	s.m.Unlock()

	if seated && prevRoom != join.Room && old != nil {
		if err := old.OnPlayerLeave(join.ID); err != nil && !errors.Is(err, ErrNoSuchPlayer) {
			log.WithError(err).Warn("cannot leave previous room")
		}
		s.dropIfEmpty(old)
	}
	log.Info("player joined")
}

func (s *Server) newRoom(name string) *Room {
	var r *Room
	r = NewRoom(name, s,
		WithSettings(s.settings),
		WithLogger(s.log),
		WithFinishHandler(func(result Result) {
			s.finishMatch(r, result)
		}),
	)
	return r
}

// reject tells the sender why its join was refused.
func (s *Server) reject(addr *net.UDPAddr, reason error) {
	msg, err := encode(ServerMessage{Error: reason.Error()})
	if err != nil {
		s.log.WithError(err).Warn("cannot encode rejection")
		return
	}
	if _, err := s.conn.WriteToUDP(msg, addr); err != nil {
		s.log.WithError(err).Warn("cannot send rejection")
	}
}

// finishMatch forgets the players of a finished match and drops the room
// unless someone has already taken a seat again.
func (s *Server) finishMatch(r *Room, result Result) {
	s.m.Lock()
	for _, p := range result.Players {
		if s.userRoom[p.Player.ID] == r.Name() {
			delete(s.userAddr, p.Player.ID)
			delete(s.userRoom, p.Player.ID)
		}
	}
	s.m.Unlock()
	s.dropIfEmpty(r)

	if s.onFinish != nil {
		s.onFinish(result)
	}
}

// dropIfEmpty must not be called with the server lock held.
func (s *Server) dropIfEmpty(r *Room) {
	if len(r.Players()) != 0 {
		return
	}
	s.m.Lock()
	if s.rooms[r.Name()] == r {
		delete(s.rooms, r.Name())
	}
	s.m.Unlock()
}

func (s *Server) OnUserLeave(playerID string) {
	s.m.Lock()
	r := s.rooms[s.userRoom[playerID]]
	delete(s.userAddr, playerID)
	delete(s.userRoom, playerID)
	s.m.Unlock()

	if r == nil {
		s.log.WithField("player", playerID).Warn("leave from unknown player")
		return
	}
	if err := r.OnPlayerLeave(playerID); err != nil {
		s.log.WithError(err).WithField("player", playerID).Warn("cannot leave room")
	}
	s.dropIfEmpty(r)
}

func (s *Server) OnUserMessage(playerID string, msg []byte) {
	s.m.Lock()
	r := s.rooms[s.userRoom[playerID]]
	s.m.Unlock()

	if r == nil {
		s.log.WithField("player", playerID).Warn("message from player without a room")
		return
	}
	r.OnMessage(playerID, msg)
}

// Send implements MessageSender for the server's rooms.
func (s *Server) Send(playerID string, msg []byte) error {
	s.m.Lock()
	addr, ok := s.userAddr[playerID]
	s.m.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchPlayer, playerID)
	}
	_, err := s.conn.WriteToUDP(msg, addr)
	return err
}

func (s *Server) closeRooms() {
	s.m.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.m.Unlock()

	for _, r := range rooms {
		r.Close()
	}
}
