package main

import "github.com/vietddude/orb/internal/cli"

func main() {
	cli.Execute()
}
