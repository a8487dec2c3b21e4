package repl

import (
	"fmt"
	"io"
	"os"

	"github.com/nrummel-labs/minidb/internal/btree"
	"github.com/nrummel-labs/minidb/internal/storage"
)

// handleMeta dispatches a line starting with '.'. It returns true if the
// process should terminate (".exit").
func handleMeta(w io.Writer, line string, table *btree.Table) bool {
	switch line {
	case ".exit":
		if err := table.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
		return true
	case ".constants":
		printConstants(w)
	case ".btree":
		table.PrintTree(w)
	default:
		fmt.Fprintln(w, UnrecognizedError(line))
	}
	return false
}

func printConstants(w io.Writer) {
	fmt.Fprintf(w, "ROW_SIZE: %d\n", storage.RowSize)
	fmt.Fprintf(w, "COMMON_NODE_HEADER_SIZE: %d\n", btree.CommonHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_HEADER_SIZE: %d\n", btree.LeafHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_CELL_SIZE: %d\n", btree.LeafCellSize)
	fmt.Fprintf(w, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", btree.LeafSpaceForCells)
	fmt.Fprintf(w, "LEAF_NODE_MAX_CELLS: %d\n", btree.LeafMaxCells)
}
