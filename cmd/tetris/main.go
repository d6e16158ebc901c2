package main

import "github.com/jauhararifin/tetris-engine/internal/cmd"

func main() {
	cmd.Execute()
}
