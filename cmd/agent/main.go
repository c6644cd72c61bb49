package main

import (
	"os"

	"bewerbungsagent/cmd/agent/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
