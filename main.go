// Command delta-indexer keeps a search index consistent with a
// triplestore via delta messages. See internal/cli for the command tree.
package main

import (
	"log"

	"github.com/mu-semtech/delta-indexer/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
