package main

import "github.com/forPelevin/segswap/internal/cli"

func main() {
	cli.Main()
}
