package main

import "github.com/ogulcanaydogan/xcli/internal/cli"

func main() {
	cli.Execute()
}
