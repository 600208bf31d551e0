// Package cmd defines the CLI commands for the crawler executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCmd creates the root command. Subcommands share v so flag bindings
// and config file values resolve through the same instance.
func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "frontier-crawler",
		Short: "A concurrent breadth-first web crawler.",
		Long: `frontier-crawler fetches pages reachable from a set of seed URLs,
stores every successfully fetched body under a name derived from its URL,
and follows the links found in HTML pages until nothing is left to visit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML/JSON/TOML config file")
	cmd.AddCommand(newCrawlCmd(v, &cfgFile))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
