package main

import "charyscan/internal/cli"

func main() {
	cli.Execute()
}
