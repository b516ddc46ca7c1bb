// Package main is the studio-service entrypoint (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/podcraft/studio-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
