package main

import "github.com/rippledata/importer/internal/cli"

func main() {
	cli.Execute()
}
