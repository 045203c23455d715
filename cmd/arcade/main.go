package main

import "github.com/battlesnakeio/arcade/cmd/arcade/commands"

func main() {
	commands.Execute()
}
