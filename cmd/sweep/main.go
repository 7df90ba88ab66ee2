package main

import "github.com/fortuna/rinkscout/cmd/sweep/cmd"

func main() {
	cmd.Execute()
}
