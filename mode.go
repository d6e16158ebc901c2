package tetris

import (
	"fmt"
	"strings"
	"time"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeSpeedCurve
	ModeObstacle
)

var modeNames = map[Mode]string{
	ModeNormal:     "normal",
	ModeSpeedCurve: "speed-curve",
	ModeObstacle:   "obstacle",
}

var Modes = []Mode{ModeSpeedCurve, ModeNormal, ModeObstacle}

func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeNormal, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

const (
	BaseDropInterval = 400 * time.Millisecond
	MinDropInterval  = 80 * time.Millisecond
	speedStep        = 30 * time.Millisecond
	linesPerSpeedUp  = 10
)

// DropInterval is the automatic drop period a driver should use after the
// given number of cleared lines. Only the speed-curve mode accelerates.
func DropInterval(mode Mode, lines int) time.Duration {
	if mode != ModeSpeedCurve {
		return BaseDropInterval
	}
	d := BaseDropInterval - time.Duration(lines/linesPerSpeedUp)*speedStep
	if d < MinDropInterval {
		return MinDropInterval
	}
	return d
}
