package main

import "github.com/mcoot/eloladder/internal/cli"

func main() {
	cli.Execute()
}
