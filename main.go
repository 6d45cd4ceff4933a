package main

import (
	"os"

	"github.com/pulseboard/pulseboard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
