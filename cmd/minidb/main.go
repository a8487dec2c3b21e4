// Command minidb is the interactive REPL over a single-table B+Tree database
// file.
package main

import (
	"fmt"
	"os"

	"github.com/nrummel-labs/minidb/internal/btree"
	"github.com/nrummel-labs/minidb/internal/crashreport"
	"github.com/nrummel-labs/minidb/internal/repl"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Must supply a database filename.")
		os.Exit(1)
	}

	table, err := btree.Open(os.Args[1])
	if err != nil {
		crashreport.Fatalf("minidb: open %s: %v", os.Args[1], err)
	}

	repl.RunStdio(table)
}
