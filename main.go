package main

import (
	"github.com/analytic-garden/BA-2-86/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
