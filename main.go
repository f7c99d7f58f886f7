package main

import (
	"github.com/leadscope/leadscope/cmd"
)

func main() {
	cmd.Execute()
}
