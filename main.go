package main

import (
	"os"

	"github.com/phoenixr49/hugbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
