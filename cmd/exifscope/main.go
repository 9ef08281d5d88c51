package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	opts := &globalOptions{}
	return &cli.Command{
		Name:  "exifscope",
		Usage: "Inspect and serve EXIF metadata",
		Flags: opts.flags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return opts.setup(ctx, cmd)
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(opts),
			serveCmd(opts),
			versionCmd(),
		},
	}
}
