// Command streamchat is a terminal client for streaming chat servers.
package main

import "github.com/diogo/streamchat/internal/commands"

func main() {
	commands.Execute()
}
