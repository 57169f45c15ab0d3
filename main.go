package main

import (
	"os"

	"github.com/aduval/bessplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
