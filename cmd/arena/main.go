package main

import "github.com/mcoot/paddle-arena/internal/cli"

func main() {
	cli.Execute()
}
