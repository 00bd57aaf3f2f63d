// Package cli provides the command-line entry point, following the
// cobra/viper root-command shape of cli/root.go in the teacher codebase:
// a persistent --config flag, environment-variable overrides, and a
// single long-running server command.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// RootCmd is the delta-indexer entry point.
var RootCmd = &cobra.Command{
	Use:   "delta-indexer",
	Short: "keeps a search index consistent with a triplestore via delta messages",
	Long: `delta-indexer consumes RDF delta messages (via HTTP webhook or AMQP
queue), resolves which documents they affect, rebuilds or patches the
affected Search-Engine indexes under the right authorization scope, and
rebuilds the configured eager indexes on startup.`,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the YAML configuration file")
	RootCmd.AddCommand(serveCmd)
}
