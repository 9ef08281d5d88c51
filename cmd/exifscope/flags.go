package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/exifscope/internal/config"
	"github.com/samcharles93/exifscope/internal/logger"
)

// globalOptions holds the root flags and the config they were merged with.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	debug      bool

	cfg config.Config
}

func (o *globalOptions) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Sources:     cli.EnvVars(config.EnvConfig),
			Destination: &o.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars(config.EnvLogLevel),
			Destination: &o.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text, none)",
			Value:       "pretty",
			Sources:     cli.EnvVars(config.EnvLogFormat),
			Destination: &o.logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &o.debug,
		},
	}
}

// setup loads the config file, applies it beneath the flags and installs the logger.
func (o *globalOptions) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := o.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return ctx, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return ctx, err
	}
	applyLoggingConfig(cmd, cfg, &o.logLevel, &o.logFormat)
	if o.debug {
		o.logLevel = "debug"
	}
	o.cfg = cfg

	log := logger.FromConfig(cmd.Root().ErrWriter, o.logLevel, o.logFormat)
	return logger.WithContext(ctx, log), nil
}
