// Package repl implements the interactive prompt, meta commands, and the
// textual INSERT/SELECT parser that sit on top of the B+Tree core. None of
// this is part of the storage engine's hard invariants — it only has to
// translate recognizable input lines into btree.Table operations and print
// their results in the documented formats.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nrummel-labs/minidb/internal/btree"
)

// Run drives the read-eval-print loop against table, reading lines from r
// and writing the "db > " prompt to w, until ".exit" or EOF.
func Run(r io.Reader, w io.Writer, table *btree.Table) {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "db > ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		if line[0] == '.' {
			if handleMeta(w, line, table) {
				return
			}
			continue
		}

		stmt, err := PrepareStatement(line)
		if err != nil {
			fmt.Fprintln(w, err)
			continue
		}
		if err := Execute(w, stmt, table); err != nil {
			fmt.Fprintln(w, err)
			continue
		}
		fmt.Fprintln(w, "Executed.")
	}
}

// RunStdio is the entry point cmd/minidb uses: stdin/stdout, process exit
// codes via os.Exit inside the meta-command handler.
func RunStdio(table *btree.Table) {
	Run(os.Stdin, os.Stdout, table)
}
