// intentbench benchmarks an intent classification service against a
// labeled TSV dataset.
//
// Usage:
//
//	intentbench --url http://localhost:8080 [flags] <dataset.tsv>
//	intentbench version
//
// Every flag can also be set through an INTENTS_* environment variable
// or a YAML config file.
package main

import (
	"errors"
	"fmt"
	"os"
)

var version = "dev"

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func (e cliError) Unwrap() error { return e.err }

func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, ce.err)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
