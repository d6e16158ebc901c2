package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kirsle/configdir"
	"github.com/sirupsen/logrus"
)

// logToFile sends log output to path while the terminal belongs to the game.
// The returned function restores stderr and closes the file.
func logToFile(path string) (func(), error) {
	if err := configdir.MakePath(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logrus.SetOutput(f)
	return func() {
		logrus.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
