package btree

import (
	"github.com/cockroachdb/errors"
	"github.com/nrummel-labs/minidb/internal/storage"
)

// ErrDuplicateKey is returned when Insert is given an id already present in
// the table.
var ErrDuplicateKey = errors.New("Error: Duplicate key.")

// Table orchestrates search, insertion, splitting, and root promotion over
// a single B+Tree index backed by a Pager. Page 0 is always the root.
type Table struct {
	pager       *storage.Pager
	rootPageNum uint32
}

// Open opens (or creates) the database file at path and, for a brand-new
// file, initializes page 0 as an empty leaf root.
func Open(path string) (*Table, error) {
	pager, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	t := &Table{pager: pager, rootPageNum: 0}
	if pager.NumPages() == 0 {
		root := pager.GetPage(0)
		InitializeLeaf(root)
		SetIsRoot(root, true)
	}
	return t, nil
}

// Close flushes every cached page to disk and releases the file handle.
func (t *Table) Close() error {
	return t.pager.Close()
}

// Pager exposes the underlying pager for tooling (metrics, the inspection
// CLI) that needs to look at the file without going through the tree.
func (t *Table) Pager() *storage.Pager { return t.pager }

// Find descends from the root to the leaf that should contain key, and
// returns a cursor positioned at that key's cell if present, or at the
// least cell whose key exceeds it otherwise.
func (t *Table) Find(key uint32) *Cursor {
	pageNum := t.rootPageNum
	for {
		pg := t.pager.GetPage(pageNum)
		if NodeType(pg) == NodeLeaf {
			return t.leafFind(pageNum, pg, key)
		}
		childIndex := FindChild(pg, key)
		pageNum = InternalChild(pg, childIndex)
	}
}

func (t *Table) leafFind(pageNum uint32, pg *storage.Page, key uint32) *Cursor {
	n := NumCells(pg)
	lo, hi := uint32(0), n
	for lo < hi {
		mid := lo + (hi-lo)/2
		k := LeafKey(pg, mid)
		if key == k {
			lo = mid
			break
		}
		if key < k {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return &Cursor{table: t, PageNum: pageNum, CellNum: lo}
}

// Start returns a cursor at the leftmost leaf's first cell. EndOfTable is
// true iff that leaf holds zero cells.
func (t *Table) Start() *Cursor {
	c := t.Find(0)
	pg := t.pager.GetPage(c.PageNum)
	c.EndOfTable = NumCells(pg) == 0
	return c
}

// Insert adds row under key row.ID, failing with ErrDuplicateKey if that id
// is already present.
func (t *Table) Insert(row storage.Row) error {
	key := row.ID
	cursor := t.Find(key)
	pg := t.pager.GetPage(cursor.PageNum)
	if cursor.CellNum < NumCells(pg) && LeafKey(pg, cursor.CellNum) == key {
		return ErrDuplicateKey
	}
	t.leafInsert(cursor, key, row)
	return nil
}

// ─── Leaf insertion ──────────────────────────────────────────────────────

func (t *Table) leafInsert(cursor *Cursor, key uint32, row storage.Row) {
	pg := t.pager.GetPage(cursor.PageNum)
	numCells := NumCells(pg)
	if numCells >= LeafMaxCells {
		t.leafSplitAndInsert(cursor, key, row)
		return
	}
	for i := numCells; i > cursor.CellNum; i-- {
		copy(LeafCell(pg, i), LeafCell(pg, i-1))
	}
	SetNumCells(pg, numCells+1)
	SetLeafKey(pg, cursor.CellNum, key)
	row.Serialize(LeafValue(pg, cursor.CellNum))
}

// leafSplitAndInsert splits a full leaf in two (LeafLeftSplitCount /
// LeafRightSplitCount cells each) and inserts (key, row) into whichever half
// its logical position falls in, then propagates the split upward.
func (t *Table) leafSplitAndInsert(cursor *Cursor, key uint32, row storage.Row) {
	oldPageNum := cursor.PageNum
	oldPage := t.pager.GetPage(oldPageNum)
	oldMax := MaxKey(oldPage)

	newPageNum := t.pager.GetUnusedPageNum()
	newPage := t.pager.GetPage(newPageNum)
	oldPage = t.pager.GetPage(oldPageNum)

	InitializeLeaf(newPage)
	SetNextLeaf(newPage, NextLeaf(oldPage))
	SetNextLeaf(oldPage, newPageNum)
	SetParent(newPage, Parent(oldPage))

	for i := int(LeafMaxCells); i >= 0; i-- {
		var dest *storage.Page
		var idx uint32
		if uint32(i) >= LeafLeftSplitCount {
			dest = newPage
			idx = uint32(i) - LeafLeftSplitCount
		} else {
			dest = oldPage
			idx = uint32(i)
		}
		switch {
		case uint32(i) == cursor.CellNum:
			SetLeafKey(dest, idx, key)
			row.Serialize(LeafValue(dest, idx))
		case uint32(i) > cursor.CellNum:
			copy(LeafCell(dest, idx), LeafCell(oldPage, uint32(i)-1))
		default:
			copy(LeafCell(dest, idx), LeafCell(oldPage, uint32(i)))
		}
	}
	SetNumCells(oldPage, LeafLeftSplitCount)
	SetNumCells(newPage, LeafRightSplitCount)

	newOldMax := MaxKey(oldPage)

	if IsRoot(oldPage) {
		t.createNewRoot(newPageNum)
		return
	}
	parentPageNum := Parent(oldPage)
	parentPage := t.pager.GetPage(parentPageNum)
	UpdateInternalNodeKey(parentPage, oldMax, newOldMax)
	t.internalInsert(parentPageNum, newPageNum)
}

// createNewRoot is invoked when a split propagates all the way to the root:
// the current root's bytes are copied into a freshly allocated left page,
// and page 0 is reinitialized as a fresh internal node with two children.
func (t *Table) createNewRoot(rightPageNum uint32) {
	rootPageNum := t.rootPageNum
	root := t.pager.GetPage(rootPageNum)

	leftPageNum := t.pager.GetUnusedPageNum()
	leftPage := t.pager.GetPage(leftPageNum)
	root = t.pager.GetPage(rootPageNum)
	*leftPage = *root
	SetIsRoot(leftPage, false)

	if NodeType(leftPage) == NodeInternal {
		n := NumKeys(leftPage)
		for i := uint32(0); i < n; i++ {
			child := t.pager.GetPage(InternalCellChild(leftPage, i))
			SetParent(child, leftPageNum)
			leftPage = t.pager.GetPage(leftPageNum)
		}
		rightChild := t.pager.GetPage(RightChild(leftPage))
		SetParent(rightChild, leftPageNum)
		leftPage = t.pager.GetPage(leftPageNum)
	}

	root = t.pager.GetPage(rootPageNum)
	InitializeInternal(root)
	SetIsRoot(root, true)
	SetNumKeys(root, 1)
	SetInternalCellChild(root, 0, leftPageNum)
	leftMax := SubtreeMaxKey(t.pager, leftPageNum)
	SetInternalKey(root, 0, leftMax)
	SetRightChild(root, rightPageNum)

	leftPage = t.pager.GetPage(leftPageNum)
	SetParent(leftPage, rootPageNum)
	right := t.pager.GetPage(rightPageNum)
	SetParent(right, rootPageNum)
}

// ─── Internal node insertion ─────────────────────────────────────────────

// internalInsert adds childPageNum as a child of the internal node at
// parentPageNum, splitting the parent first if it is already full.
func (t *Table) internalInsert(parentPageNum, childPageNum uint32) {
	parent := t.pager.GetPage(parentPageNum)
	childMax := SubtreeMaxKey(t.pager, childPageNum)
	index := FindChild(parent, childMax)
	origNumKeys := NumKeys(parent)

	if origNumKeys >= InternalNodeMaxCells {
		t.internalSplitAndInsert(parentPageNum, childPageNum)
		return
	}

	if RightChild(parent) == InvalidPageNum {
		SetRightChild(parent, childPageNum)
		return
	}

	SetNumKeys(parent, origNumKeys+1)

	rightChildPageNum := RightChild(parent)
	rightMax := SubtreeMaxKey(t.pager, rightChildPageNum)

	if childMax > rightMax {
		SetInternalCellChild(parent, origNumKeys, rightChildPageNum)
		SetInternalKey(parent, origNumKeys, rightMax)
		SetRightChild(parent, childPageNum)
	} else {
		for i := origNumKeys; i > index; i-- {
			srcChild := InternalCellChild(parent, i-1)
			srcKey := InternalKey(parent, i-1)
			SetInternalCellChild(parent, i, srcChild)
			SetInternalKey(parent, i, srcKey)
		}
		SetInternalCellChild(parent, index, childPageNum)
		SetInternalKey(parent, index, childMax)
	}
}

// internalSplitAndInsert splits a full internal node (parentPageNum) and
// inserts childPageNum into whichever half it belongs in, promoting the
// split to the grandparent (or to a freshly created root).
func (t *Table) internalSplitAndInsert(parentPageNum, childPageNum uint32) {
	oldMax := SubtreeMaxKey(t.pager, parentPageNum)
	childMax := SubtreeMaxKey(t.pager, childPageNum)

	newPageNum := t.pager.GetUnusedPageNum()
	newPage := t.pager.GetPage(newPageNum)
	InitializeInternal(newPage)

	parentPage := t.pager.GetPage(parentPageNum)
	splittingRoot := IsRoot(parentPage)

	var oldPageNum uint32
	if splittingRoot {
		t.createNewRoot(newPageNum)
		root := t.pager.GetPage(t.rootPageNum)
		oldPageNum = InternalCellChild(root, 0)
	} else {
		oldPageNum = parentPageNum
	}

	// Move the old right child into the new node.
	oldPage := t.pager.GetPage(oldPageNum)
	movedRight := RightChild(oldPage)
	t.internalInsert(newPageNum, movedRight)
	movedRightPage := t.pager.GetPage(movedRight)
	SetParent(movedRightPage, newPageNum)
	oldPage = t.pager.GetPage(oldPageNum)
	SetRightChild(oldPage, InvalidPageNum)

	// Move the upper half of the remaining cells into the new node.
	for i := InternalNodeMaxCells - 1; i >= InternalNodeMaxCells/2+1; i-- {
		oldPage = t.pager.GetPage(oldPageNum)
		cur := InternalChild(oldPage, uint32(i))
		t.internalInsert(newPageNum, cur)
		curPage := t.pager.GetPage(cur)
		SetParent(curPage, newPageNum)
		oldPage = t.pager.GetPage(oldPageNum)
		SetNumKeys(oldPage, NumKeys(oldPage)-1)
	}

	// Promote the new middle key: the old node's last remaining child
	// becomes its right child, and its key slot is dropped.
	oldPage = t.pager.GetPage(oldPageNum)
	midChild := InternalChild(oldPage, NumKeys(oldPage)-1)
	SetRightChild(oldPage, midChild)
	SetNumKeys(oldPage, NumKeys(oldPage)-1)

	// Route the incoming child to whichever half now covers its range.
	oldPage = t.pager.GetPage(oldPageNum)
	var destPageNum uint32
	if childMax < SubtreeMaxKey(t.pager, oldPageNum) {
		destPageNum = oldPageNum
	} else {
		destPageNum = newPageNum
	}
	t.internalInsert(destPageNum, childPageNum)
	childPg := t.pager.GetPage(childPageNum)
	SetParent(childPg, destPageNum)

	// Fix the grandparent's separator key for the (now smaller) old node.
	oldPage = t.pager.GetPage(oldPageNum)
	grandparentPageNum := Parent(oldPage)
	grandparentPage := t.pager.GetPage(grandparentPageNum)
	UpdateInternalNodeKey(grandparentPage, oldMax, SubtreeMaxKey(t.pager, oldPageNum))

	if !splittingRoot {
		t.internalInsert(grandparentPageNum, newPageNum)
		newPage = t.pager.GetPage(newPageNum)
		SetParent(newPage, grandparentPageNum)
	}
}
