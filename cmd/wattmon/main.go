package main

import "github.com/wattmon/wattmon/internal/cli"

func main() {
	cli.Execute()
}
