package main

import "github.com/mvp-joe/fileindex/internal/cli"

func main() {
	cli.Execute()
}
