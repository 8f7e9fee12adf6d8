package main

import "github.com/mvp-joe/chunklink/internal/cli"

func main() {
	cli.Execute()
}
