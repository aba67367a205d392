package main

import (
	"log"

	"github.com/google/gops/agent"

	"github.com/brel-ge/kcfg-vex/cmd"
)

func main() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("failed to start gops agent: %v", err)
	}
	defer agent.Close()

	cmd.Execute()
}
