// gbsearch is a feature search daemon for genome annotations.
// Wildcard keyword search over gene names, served over a Unix socket.
package main

import (
	"os"

	"github.com/corey/gbsearch/cmd/gbsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
