// Command kestreld runs a kestrel server from a configuration file.
//
// Grounded on the teacher's examples/highlevel/* main packages for the
// overall shape of a standalone binary wrapping the framework, and on
// ipiton-alert-history-service's cmd/template-validator/cmd package for the
// cobra root/subcommand layout this CLI follows.
package main

import (
	"fmt"
	"os"

	"github.com/kestrelhttp/kestrel/cmd/kestreld/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
