package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/exifscope/internal/api"
	"github.com/samcharles93/exifscope/internal/boundary"
	"github.com/samcharles93/exifscope/internal/logger"
)

func serveCmd(opts *globalOptions) *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		rateLimit   float64
		rateBurst   int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve EXIF extraction over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Float64Flag{
				Name:        "rate-limit",
				Usage:       "requests per second across all clients (0 disables)",
				Destination: &rateLimit,
			},
			&cli.IntFlag{
				Name:        "rate-burst",
				Usage:       "burst size for --rate-limit",
				Value:       8,
				Destination: &rateBurst,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, opts.cfg, &addr, &readTimeout, &rateLimit, &rateBurst)
			log := logger.FromContext(ctx)

			b := boundary.FromConfig(opts.cfg, boundary.WithLogger(log.With("component", "boundary")))
			server := api.NewServer(b,
				api.WithLogger(log.With("component", "api")),
				api.WithMaxBody(opts.cfg.MaxInput()),
			)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			e.Use(api.RequestID())
			e.Use(api.RateLimit(rateLimit, rateBurst))
			server.Register(e)

			log.Info("starting server", "address", addr, "rate_limit", rateLimit)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
