package main

import (
	"os"

	"github.com/paulhhowells/tmplpack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
