package main

import "github.com/sasta-kro/dockyard/cli"

func main() {
	cli.Execute()
}
