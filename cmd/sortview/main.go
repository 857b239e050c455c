package main

import "github.com/roach88/sortview/internal/cli"

func main() {
	cli.Execute()
}
