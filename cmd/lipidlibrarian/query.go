package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"lipidlibrarian/internal/librarian"
	"lipidlibrarian/internal/query"
	"lipidlibrarian/internal/render"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

type queryFlags struct {
	file      string
	method    string
	requeries int
	cutoff    int
	sources   []string
	format    string
	outputDir string
}

func newQueryCmd(g *globals) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query [lipids...]",
		Short: "Query lipids by name, database identifier or m/z",
		Long: `Each argument is one query: a lipid name ("PC 34:1", "PLPE"), a database
identifier ("SLM:000000651", "LMGP01010005") or an m/z query of the form
"mz;tolerance;adducts" where adducts is a comma separated list or a polarity
("410.243;0.001;+H,+Na" or "410.243;0.001;pos").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := collectQueries(args, f.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return errors.WithHint(errors.New("no queries given"), "pass lipids as arguments or use --file")
			}

			format, err := render.ParseFormat(f.format)
			if err != nil {
				return err
			}

			lib := librarian.New(g.cfg, nil, logger.Named("librarian"))
			defer lib.Close()

			opts, err := f.options(cmd, lib.Options())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runQueries(ctx, lib, inputs, opts, format, f.outputDir, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read queries from a file, one per line (- for stdin)")
	cmd.Flags().StringVar(&f.method, "method", "", "Force the query method: id, mz or name")
	cmd.Flags().IntVar(&f.requeries, "requery", 0, "Requery the sources with the results this many times")
	cmd.Flags().IntVar(&f.cutoff, "cutoff", 0, "Keep at most this many m/z matches per source (0 keeps all)")
	cmd.Flags().StringSliceVar(&f.sources, "sources", nil, "Sources to query (default from configuration)")
	cmd.Flags().StringVar(&f.format, "output-format", "json", "Output format: json, yaml, text or csv")
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", "", "Write one file per query into this directory")
	return cmd
}

// options overlays the flags that were set on the configured defaults.
func (f *queryFlags) options(cmd *cobra.Command, opts query.Options) (query.Options, error) {
	method, err := query.ParseMethod(f.method)
	if err != nil {
		return opts, err
	}
	opts.Method = method
	if cmd.Flags().Changed("requery") {
		opts.Requeries = f.requeries
	}
	if cmd.Flags().Changed("cutoff") {
		opts.Cutoff = f.cutoff
	}
	if cmd.Flags().Changed("sources") {
		opts.Sources = f.sources
	}
	return opts, opts.Validate()
}

// collectQueries joins the positional queries with the lines of file.
// Blank lines are skipped.
func collectQueries(args []string, file string, stdin io.Reader) ([]string, error) {
	var out []string
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	if file == "" {
		return out, nil
	}

	r := stdin
	if file != "-" {
		fh, err := os.Open(file)
		if err != nil {
			return nil, errors.Wrapf(err, "open query file %s", file)
		}
		defer fh.Close()
		r = fh
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, errors.Wrap(sc.Err(), "read query file")
}

type querier interface {
	Query(ctx context.Context, input string, opts query.Options) (*query.Result, error)
}

// runQueries answers every input in order. With outputDir set each query
// gets its own file; otherwise all lipids are rendered to w together.
func runQueries(ctx context.Context, q querier, inputs []string, opts query.Options, format render.Format, outputDir string, w io.Writer) error {
	log := logger.Named("cli")
	var all []*models.Lipid
	for _, in := range inputs {
		res, err := q.Query(ctx, in, opts)
		if err != nil {
			return errors.Wrapf(err, "query %q", in)
		}
		if res.Warning != "" {
			log.Warnw("no results", logger.FieldQuery, in, "warning", res.Warning)
		}
		if outputDir == "" {
			all = append(all, res.Lipids...)
			continue
		}
		path, err := render.WriteFile(outputDir, in, format, res.Lipids)
		if err != nil {
			return err
		}
		log.Infow("wrote results", logger.FieldQuery, in, logger.FieldPath, path, logger.FieldCount, len(res.Lipids))
	}
	if outputDir != "" {
		return nil
	}
	return render.Write(w, format, all)
}
