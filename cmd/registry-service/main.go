package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/teshtvele/groups-management/registryservice"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply schema migrations and exit")
	flag.Parse()

	run := registryservice.Run
	if *migrateOnly {
		run = registryservice.Migrate
	}
	if err := run(); err != nil {
		log.Error().Err(err).Msg("registry-service exited with error")
		os.Exit(1)
	}
}
