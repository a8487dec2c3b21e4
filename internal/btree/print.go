package btree

import (
	"fmt"
	"io"
	"strings"
)

// PrintTree renders a pre-order dump of the tree rooted at pageNum to w,
// matching the ".btree" meta command's format: one space of indentation per
// depth level, leaves as "- leaf (size N)" followed by their keys, and
// internal nodes as "- internal (size N)" with each child interleaved with
// its "- key K" separator and the right child printed last.
func (t *Table) PrintTree(w io.Writer) {
	t.printNode(w, t.rootPageNum, 0)
}

func (t *Table) printNode(w io.Writer, pageNum uint32, depth int) {
	pg := t.pager.GetPage(pageNum)
	indent := strings.Repeat(" ", depth)

	if NodeType(pg) == NodeLeaf {
		numCells := NumCells(pg)
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, numCells)
		for i := uint32(0); i < numCells; i++ {
			fmt.Fprintf(w, "%s - %d\n", indent, LeafKey(pg, i))
		}
		return
	}

	numKeys := NumKeys(pg)
	fmt.Fprintf(w, "%s- internal (size %d)\n", indent, numKeys)
	for i := uint32(0); i < numKeys; i++ {
		child := InternalCellChild(pg, i)
		t.printNode(w, child, depth+1)
		fmt.Fprintf(w, "%s - key %d\n", indent, InternalKey(pg, i))
	}
	t.printNode(w, RightChild(pg), depth+1)
}
