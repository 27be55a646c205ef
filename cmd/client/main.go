package main

import "equilibria/cmd/client/cmd"

func main() {
	cmd.Execute()
}
