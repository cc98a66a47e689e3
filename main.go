package main

import (
	"os"

	"github.com/abcdlsj/nss-docker/cmd"
	"github.com/charmbracelet/log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error("Error executing command", "err", err)
		os.Exit(1)
	}
}
