package main

import "github.com/davidbz/creditmeter/internal/cli"

func main() {
	cli.Execute()
}
