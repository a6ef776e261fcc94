package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/utils"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

type globals struct {
	configPath string
	logJSON    bool
	verbosity  int
	cfg        *utils.Config
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "lipidlibrarian",
		Short: "Resolve lipid names, identifiers and m/z values across lipid databases",
		Long: `lipidlibrarian looks lipids up in SwissLipids, LIPID MAPS and ALEX123,
merges the records into one hierarchy and annotates them with LION ontology
terms and LINEX reactions.

Examples:
  lipidlibrarian query "PC 34:1"
  lipidlibrarian query "SLM:000000651" --output-format yaml
  lipidlibrarian query "760.585;0.01;+H" --cutoff 10
  lipidlibrarian query -f lipids.txt -o results --output-format csv
  lipidlibrarian adducts --polarity negative`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig(g.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-json") {
				cfg.Log.JSON = g.logJSON
			}
			if err := logger.Initialize(cfg.Log.JSON, g.verbosity); err != nil {
				return errors.Wrap(err, "initialize logger")
			}
			g.cfg = cfg
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}

	root.PersistentFlags().CountVarP(&g.verbosity, "verbose", "v", "Increase output verbosity")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to a lipidlibrarian.toml file")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Log as JSON")

	root.AddCommand(newQueryCmd(g), newAdductsCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the lipidlibrarian version",
		// the root pre-run would load configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			for _, h := range hints {
				fmt.Fprintln(os.Stderr, "hint:", h)
			}
		}
		os.Exit(1)
	}
}
