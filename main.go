package main

import (
	"os"

	"github.com/swissenergydata/decipher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
