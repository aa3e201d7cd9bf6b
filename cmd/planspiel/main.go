package main

import "github.com/nfrund/planspiel/cmd/planspiel/cmd"

func main() {
	cmd.Execute()
}
