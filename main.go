package main

import (
	"os"

	"github.com/dockops/yms/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
