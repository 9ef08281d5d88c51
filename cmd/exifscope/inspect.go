package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/exifscope/internal/boundary"
	"github.com/samcharles93/exifscope/internal/logger"
	"github.com/samcharles93/exifscope/internal/mmapfile"
	"github.com/samcharles93/exifscope/internal/scope"
)

type inspectField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type inspectResult struct {
	File         string         `json:"file"`
	LittleEndian bool           `json:"little_endian"`
	Fields       []inspectField `json:"fields,omitempty"`
	Value        *string        `json:"value,omitempty"`
}

func inspectCmd(opts *globalOptions) *cli.Command {
	var (
		format string
		tag    string
		filter string
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the EXIF attributes of one or more images",
		ArgsUsage: "<file> [file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (table, json)",
				Value:       "table",
				Destination: &format,
			},
			&cli.StringFlag{
				Name:        "tag",
				Usage:       "print only the value of this tag (e.g. Orientation or 0.Orientation)",
				Destination: &tag,
			},
			&cli.StringFlag{
				Name:        "filter",
				Usage:       "only show keys containing this substring",
				Destination: &filter,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return fmt.Errorf("inspect: at least one file is required")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("inspect: unknown format %q", format)
			}

			log := logger.FromContext(ctx)
			b := boundary.FromConfig(opts.cfg, boundary.WithLogger(log))

			results := make([]inspectResult, 0, len(files))
			for _, path := range files {
				res, err := inspectFile(b, path, tag, filter)
				if err != nil {
					return err
				}
				log.Debug("inspected", "file", path, "fields", len(res.Fields))
				results = append(results, res)
			}

			out := cmd.Root().Writer
			if format == "json" {
				return writeInspectJSON(out, results)
			}
			return writeInspectTable(out, results)
		},
	}
}

// inspectFile runs one load/query/free cycle against path.
func inspectFile(b *boundary.Boundary, path, tag, filter string) (inspectResult, error) {
	f, err := mmapfile.Open(path)
	if err != nil {
		return inspectResult{}, err
	}
	defer func() { _ = f.Close() }()

	loaded := b.Load(f.Data)
	if loaded.Code != boundary.Ok {
		return inspectResult{}, fmt.Errorf("%s: load: %s", path, loaded.Code)
	}
	defer b.Free(loaded.Handle)

	res := inspectResult{File: path}
	little, code := b.IsLittleEndian(loaded.Handle)
	if code != boundary.Ok {
		return inspectResult{}, fmt.Errorf("%s: byte order: %s", path, code)
	}
	res.LittleEndian = little

	if tag != "" {
		p, code := b.GetValue(loaded.Handle, tag)
		if code != boundary.Ok {
			return inspectResult{}, fmt.Errorf("%s: tag %s: %s", path, tag, code)
		}
		v := scope.GoString(p)
		res.Value = &v
		return res, nil
	}

	pairs, code := b.KeyValuePairs(loaded.Handle)
	if code != boundary.Ok {
		return inspectResult{}, fmt.Errorf("%s: attributes: %s", path, code)
	}
	for _, p := range pairs {
		key := scope.GoString(p.Key)
		if filter != "" && !strings.Contains(strings.ToLower(key), strings.ToLower(filter)) {
			continue
		}
		res.Fields = append(res.Fields, inspectField{Key: key, Value: scope.GoString(p.Value)})
	}
	return res, nil
}

func writeInspectJSON(w io.Writer, results []inspectResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}

func writeInspectTable(w io.Writer, results []inspectResult) error {
	for i, res := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		order := "big endian"
		if res.LittleEndian {
			order = "little endian"
		}
		if _, err := fmt.Fprintf(w, "%s (%s)\n", res.File, order); err != nil {
			return err
		}
		if res.Value != nil {
			if _, err := fmt.Fprintln(w, *res.Value); err != nil {
				return err
			}
			continue
		}
		rows := make([][]string, 0, len(res.Fields))
		for _, f := range res.Fields {
			rows = append(rows, []string{f.Key, f.Value})
		}
		if _, err := fmt.Fprintln(w, renderTable([]string{"Key", "Value"}, rows)); err != nil {
			return err
		}
	}
	return nil
}
