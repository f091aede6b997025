package main

import (
	"log"

	"github.com/m3rciful/tagbot/bot/app"
	"github.com/m3rciful/tagbot/core/buildinfo"
	corecmd "github.com/m3rciful/tagbot/core/cmd"
)

func main() {
	log.Printf("tagbot %s (%s)", buildinfo.Version, buildinfo.Commit)

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		Build: func(path string) (corecmd.App, error) {
			return app.Build(path)
		},
	})
	if err != nil {
		log.Fatalf("tagbot: %v", err)
	}
}
