package main

import (
	"flag"

	"github.com/danmuck/nativeload/internal/config"
	"github.com/danmuck/nativeload/internal/logging"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "cmd/nativeloadctl/config.toml"

func main() {
	logging.ConfigureRuntime()
	kind := flag.String("kind", "main", "config kind: main|worker")
	output := flag.String("output", defaultConfigPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultConfigPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadLoaderConfig(*input)
		if err != nil {
			log.Fatal().Err(err).Msg("config invalid")
		}
		log.Info().Str("path", *input).Strs("modules", cfg.Modules).Msg("config valid")
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		log.Fatal().Err(err).Msg("write template failed")
	}
	log.Info().Str("kind", *kind).Str("path", *output).Msg("wrote config template")
}
