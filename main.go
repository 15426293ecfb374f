package main

import (
	"os"

	"github.com/rs/zerolog/log"

	_ "github.com/tanpawarit/agentic-services/pkg/logger/autoload"
)

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
