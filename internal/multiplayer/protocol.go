// Package multiplayer runs two-player versus rooms over UDP. Every datagram
// is one gob-encoded message; the server owns both games and streams
// snapshots back to the players.
package multiplayer

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	tetris "github.com/jauhararifin/tetris-engine"
)

// MaxPacketSize is the largest payload an IPv4 UDP datagram can carry.
const MaxPacketSize = 65507

var ErrMessageTooLarge = errors.New("message exceeds packet size")

type JoinMessage struct {
	ID   string
	Name string
	Room string
}

type LeaveMessage struct {
	ID string
}

type RoomMessage struct {
	ID      string
	Message []byte
}

// UserMessage is what a client sends. Exactly one field is set.
type UserMessage struct {
	JoinMessage  *JoinMessage
	LeaveMessage *LeaveMessage
	RoomMessage  *RoomMessage
}

type ActionMessage struct {
	Action tetris.Action
}

type InitGameMessage struct {
	Players       map[string]string
	Mode          tetris.Mode
	Width, Height int
	FPS           int
	Countdown     time.Duration
}

type GameStateUpdateMessage struct {
	State    map[string]tetris.State
	Finished bool
	Winner   string
}

// ServerMessage is what the server sends. Exactly one field is set.
type ServerMessage struct {
	InitGameMessage        *InitGameMessage
	GameStateUpdateMessage *GameStateUpdateMessage
	Error                  string
}

func encode(v interface{}) ([]byte, error) {
	buff := &bytes.Buffer{}
	if err := gob.NewEncoder(buff).Encode(v); err != nil {
		return nil, err
	}
	if buff.Len() > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, buff.Len())
	}
	return buff.Bytes(), nil
}

func decode(msg []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(msg)).Decode(v)
}
