// Command taxacore is a local debug harness for internal/facade: it
// is not the production transport (spec.md §1 keeps HTTP external),
// just enough of a CLI to load a taxonomy + synth-tree directory and
// run one facade operation by hand.
package main

import (
	"log"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
