package main

import "deform-watch/internal/cli"

func main() {
	cli.Execute()
}
