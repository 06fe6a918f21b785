package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/config"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/server"
	"github.com/exteriorpros/paintstudio/internal/common/logtrace"
)

const defaultConfigFile = "colorsrv.conf"

func init() {
	logtrace.InitLogger()
}

type cmdoptions struct {
	configFile *string
}

func main() {
	slog := log.With().Str("state", "init").Logger()
	opt := parseFlags()

	slog.Info().Str("config_file", *opt.configFile).Msg("loading config file")
	if err := config.LoadConfig(*opt.configFile); err != nil {
		slog.Error().Str("config_file", *opt.configFile).Err(err).Msg("unable to load config file")
		os.Exit(1)
	}
	cfg := config.Config()
	if cfg.LogLevel != "" {
		if err := logtrace.SetLogLevel(cfg.LogLevel); err != nil {
			slog.Error().Err(err).Msg("invalid log level")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.CreateNewServer(ctx, cfg)
	if err != nil {
		slog.Error().Err(err).Msg("unable to create server")
		os.Exit(1)
	}
	s.MountHandlers()
	if err := s.StartInvalidationListener(ctx); err != nil {
		slog.Error().Err(err).Msg("unable to start cache invalidation listener")
		s.Close()
		os.Exit(1)
	}

	slog.Info().
		Str("port", cfg.ServerPort).
		Str("backend", cfg.Catalog.Backend).
		Str("version", server.Version).
		Msg("colour server listening")
	err = s.ListenAndServe(ctx)
	if cerr := s.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("unable to close resource store")
	}
	if err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	opt.configFile = flag.String("config", defaultConfigFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
