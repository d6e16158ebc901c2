package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	tetris "github.com/jauhararifin/tetris-engine"
)

var ErrRejected = errors.New("server rejected join")

type Client struct {
	conn *net.UDPConn
	id   string
	name string
	room string
	log  logrus.FieldLogger
}

// Dial connects to a server. Nothing is sent until Join.
func Dial(host, name, room string) (*Client, error) {
	idUUID, err := uuid.NewUUID()
	if err != nil {
		return nil, fmt.Errorf("generate player id: %w", err)
	}

	addr, err := net.ResolveUDPAddr("udp4", host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}

	c := &Client{
		conn: conn,
		id:   idUUID.String(),
		name: name,
		room: room,
	}
	c.log = logrus.WithFields(logrus.Fields{"player": name, "room": room, "id": c.id})
	return c, nil
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) send(msg UserMessage) error {
	packet, err := encode(msg)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(packet)
	return err
}

// Join asks for a seat and waits up to timeout for the match to start.
func (c *Client) Join(timeout time.Duration) (*InitGameMessage, error) {
	if err := c.send(UserMessage{JoinMessage: &JoinMessage{ID: c.id, Name: c.name, Room: c.room}}); err != nil {
		return nil, fmt.Errorf("send join: %w", err)
	}
	c.log.Info("join message sent")

	if timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
		defer c.conn.SetReadDeadline(time.Time{})
	}

	msg, err := c.Receive()
	if err != nil {
		return nil, fmt.Errorf("wait for opponent: %w", err)
	}
	if msg.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg.Error)
	}
	if msg.InitGameMessage == nil {
		return nil, fmt.Errorf("unexpected message while waiting for opponent")
	}
	c.log.WithField("players", msg.InitGameMessage.Players).Info("init game message received")
	return msg.InitGameMessage, nil
}

func (c *Client) Receive() (ServerMessage, error) {
	buff := make([]byte, MaxPacketSize)
	n, err := c.conn.Read(buff)
	if err != nil {
		return ServerMessage{}, err
	}
	msg := ServerMessage{}
	if err := decode(buff[:n], &msg); err != nil {
		return ServerMessage{}, fmt.Errorf("decode server message: %w", err)
	}
	return msg, nil
}

// Listen hands every state update to fn until ctx is done or the match
// finishes.
func (c *Client) Listen(ctx context.Context, fn func(*GameStateUpdateMessage)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	for {
		msg, err := c.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) && !netErr.Timeout() {
				return err
			}
			c.log.WithError(err).Warn("cannot read server message")
			continue
		}
		if msg.GameStateUpdateMessage == nil {
			continue
		}
		fn(msg.GameStateUpdateMessage)
		if msg.GameStateUpdateMessage.Finished {
			return nil
		}
	}
}

func (c *Client) SendAction(action tetris.Action) error {
	inner, err := encode(ActionMessage{Action: action})
	if err != nil {
		return err
	}
	return c.send(UserMessage{RoomMessage: &RoomMessage{ID: c.id, Message: inner}})
}

func (c *Client) Leave() error {
	return c.send(UserMessage{LeaveMessage: &LeaveMessage{ID: c.id}})
}

func (c *Client) Close() error {
	return c.conn.Close()
}
