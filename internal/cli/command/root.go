// Package command provides the CLI command definitions for atmo.
//
// It uses urfave/cli/v2 for command parsing. Every command builds its own
// session: configuration, API service and logger live for one invocation.
package command

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"atmo/config"
	"atmo/internal/logging"
	"atmo/internal/netatmo"
)

// Version is set via ldflags.
var Version = "dev"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "atmo",
		Usage:   "Netatmo weather station client",
		Version: Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ConfigCommand(),
			ListCommand(),
			DumpCommand(),
			FetchCommand(),
			TestCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "rc-file",
			Aliases: []string{"c"},
			Usage:   "configuration file",
			EnvVars: []string{"NETATMORC"},
			Value:   config.DefaultRCFile,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
			Value: "warn",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "log format: text or json",
			Value: "text",
		},
		&cli.BoolFlag{
			Name:  "strict-config",
			Usage: "fail on malformed configuration sections instead of ignoring them",
		},
	}
}

// session is everything a command needs for one invocation.
type session struct {
	cfg     *config.Config
	service *netatmo.Service
	logger  *slog.Logger
}

func newSession(c *cli.Context) (*session, error) {
	logger := newLogger(c)
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		service: buildService(cfg, logger),
		logger:  logger,
	}, nil
}

func newLogger(c *cli.Context) *slog.Logger {
	logger := logging.NewLogger(logging.LoggerConfig{
		Format: c.String("log-format"),
		Level:  logging.ParseLevel(c.String("log-level")),
	})
	return logger.With("run_id", uuid.NewString())
}

func loadConfig(c *cli.Context, logger *slog.Logger) (*config.Config, error) {
	mode := config.Permissive
	if c.Bool("strict-config") {
		mode = config.Strict
	}
	cfg, err := config.Load(c.String("rc-file"), mode)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		logger.Warn("configuration problem", "detail", w)
	}
	return cfg, nil
}

func buildService(cfg *config.Config, logger *slog.Logger) *netatmo.Service {
	client := netatmo.NewClient(netatmo.DefaultBaseURL, logger)
	tokens := netatmo.NewTokenManager(cfg.Credentials, cfg, client, netatmo.RealClock{}, logger)
	var defaultStation string
	if cfg.Credentials != nil {
		defaultStation = cfg.Credentials.DefaultStation
	}
	return netatmo.NewService(client, tokens, defaultStation, logger)
}
