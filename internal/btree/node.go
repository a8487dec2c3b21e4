// Package btree implements the B+Tree index: the typed node view over a
// page frame, the tree orchestrator (search, insert, split, root
// promotion), and the cursor used to iterate leaves in key order.
package btree

import (
	"encoding/binary"

	"github.com/nrummel-labs/minidb/internal/crashreport"
	"github.com/nrummel-labs/minidb/internal/storage"
)

// Node type tags, stored in the one-byte header discriminant.
const (
	NodeInternal byte = 0
	NodeLeaf     byte = 1
)

// Common header layout, shared by both node variants.
const (
	offNodeType       = 0
	offIsRoot         = 1
	offParentPageNum  = 2
	CommonHeaderSize  = 6 // node_type(1) + is_root(1) + parent_page_num(4)
)

// Leaf node layout.
const (
	offLeafNumCells     = CommonHeaderSize
	offLeafNextLeaf     = CommonHeaderSize + 4
	LeafHeaderSize      = CommonHeaderSize + 4 + 4 // == 14
	leafCellKeySize     = 4
	LeafCellSize        = leafCellKeySize + storage.RowSize // == 295
	LeafSpaceForCells   = storage.PageSize - LeafHeaderSize
	LeafMaxCells        = LeafSpaceForCells / LeafCellSize // == 13
	LeafRightSplitCount = (LeafMaxCells + 1) / 2           // == 7
	LeafLeftSplitCount  = (LeafMaxCells + 1) - LeafRightSplitCount
)

// Internal node layout.
const (
	offInternalNumKeys    = CommonHeaderSize
	offInternalRightChild = CommonHeaderSize + 4
	InternalHeaderSize    = CommonHeaderSize + 4 + 4
	internalCellSize      = 8 // child_page_num(4) + key(4)
	// InternalNodeMaxCells is fixed (not derived from page size) to force
	// frequent splits and exercise the split/promotion algorithms.
	InternalNodeMaxCells = 3
)

// InvalidPageNum is the sentinel marking "no page" — used for a freshly
// initialized, transiently empty internal node's right child.
const InvalidPageNum = ^uint32(0)

// ─── Common header accessors ───────────────────────────────────────────────

func NodeType(pg *storage.Page) byte { return pg[offNodeType] }

func SetNodeType(pg *storage.Page, t byte) { pg[offNodeType] = t }

func IsRoot(pg *storage.Page) bool { return pg[offIsRoot] != 0 }

func SetIsRoot(pg *storage.Page, v bool) {
	if v {
		pg[offIsRoot] = 1
	} else {
		pg[offIsRoot] = 0
	}
}

func Parent(pg *storage.Page) uint32 {
	return binary.LittleEndian.Uint32(pg[offParentPageNum : offParentPageNum+4])
}

func SetParent(pg *storage.Page, n uint32) {
	binary.LittleEndian.PutUint32(pg[offParentPageNum:offParentPageNum+4], n)
}

// ─── Leaf accessors ─────────────────────────────────────────────────────────

func NumCells(pg *storage.Page) uint32 {
	return binary.LittleEndian.Uint32(pg[offLeafNumCells : offLeafNumCells+4])
}

func SetNumCells(pg *storage.Page, n uint32) {
	binary.LittleEndian.PutUint32(pg[offLeafNumCells:offLeafNumCells+4], n)
}

func leafCellOffset(i uint32) int { return LeafHeaderSize + int(i)*LeafCellSize }

// LeafCell returns the raw [key|row] window for cell i.
func LeafCell(pg *storage.Page, i uint32) []byte {
	off := leafCellOffset(i)
	return pg[off : off+LeafCellSize]
}

func LeafKey(pg *storage.Page, i uint32) uint32 {
	off := leafCellOffset(i)
	return binary.LittleEndian.Uint32(pg[off : off+leafCellKeySize])
}

func SetLeafKey(pg *storage.Page, i uint32, key uint32) {
	off := leafCellOffset(i)
	binary.LittleEndian.PutUint32(pg[off:off+leafCellKeySize], key)
}

// LeafValue returns the RowSize-byte window holding cell i's serialized row.
func LeafValue(pg *storage.Page, i uint32) []byte {
	off := leafCellOffset(i) + leafCellKeySize
	return pg[off : off+storage.RowSize]
}

func NextLeaf(pg *storage.Page) uint32 {
	return binary.LittleEndian.Uint32(pg[offLeafNextLeaf : offLeafNextLeaf+4])
}

func SetNextLeaf(pg *storage.Page, n uint32) {
	binary.LittleEndian.PutUint32(pg[offLeafNextLeaf:offLeafNextLeaf+4], n)
}

// InitializeLeaf zeroes the page and sets it up as an empty, non-root leaf.
func InitializeLeaf(pg *storage.Page) {
	*pg = storage.Page{}
	SetNodeType(pg, NodeLeaf)
	SetIsRoot(pg, false)
	SetNumCells(pg, 0)
	SetNextLeaf(pg, 0)
}

// ─── Internal accessors ─────────────────────────────────────────────────────

func NumKeys(pg *storage.Page) uint32 {
	return binary.LittleEndian.Uint32(pg[offInternalNumKeys : offInternalNumKeys+4])
}

func SetNumKeys(pg *storage.Page, n uint32) {
	binary.LittleEndian.PutUint32(pg[offInternalNumKeys:offInternalNumKeys+4], n)
}

func RightChild(pg *storage.Page) uint32 {
	return binary.LittleEndian.Uint32(pg[offInternalRightChild : offInternalRightChild+4])
}

func SetRightChild(pg *storage.Page, n uint32) {
	binary.LittleEndian.PutUint32(pg[offInternalRightChild:offInternalRightChild+4], n)
}

func internalCellOffset(i uint32) int { return InternalHeaderSize + int(i)*internalCellSize }

func InternalCellChild(pg *storage.Page, i uint32) uint32 {
	off := internalCellOffset(i)
	return binary.LittleEndian.Uint32(pg[off : off+4])
}

func SetInternalCellChild(pg *storage.Page, i uint32, child uint32) {
	off := internalCellOffset(i)
	binary.LittleEndian.PutUint32(pg[off:off+4], child)
}

func InternalKey(pg *storage.Page, i uint32) uint32 {
	off := internalCellOffset(i)
	return binary.LittleEndian.Uint32(pg[off+4 : off+8])
}

func SetInternalKey(pg *storage.Page, i uint32, key uint32) {
	off := internalCellOffset(i)
	binary.LittleEndian.PutUint32(pg[off+4:off+8], key)
}

// InternalChild returns the child at logical position i: the cell's child
// for i < NumKeys, the right child for i == NumKeys. Any other i is fatal.
func InternalChild(pg *storage.Page, i uint32) uint32 {
	n := NumKeys(pg)
	if i > n {
		crashreport.Fatalf("Tried to access child_num %d > num_keys %d", i, n)
	}
	if i == n {
		right := RightChild(pg)
		if right == InvalidPageNum {
			crashreport.Fatalf("Tried to access right child of node with invalid right child")
		}
		return right
	}
	return InternalCellChild(pg, i)
}

// InitializeInternal zeroes the page and sets it up as an empty, non-root
// internal node. The sentinel right child marks it as transiently empty —
// internalInsert uses this to accept its first child without bumping
// NumKeys.
func InitializeInternal(pg *storage.Page) {
	*pg = storage.Page{}
	SetNodeType(pg, NodeInternal)
	SetIsRoot(pg, false)
	SetNumKeys(pg, 0)
	SetRightChild(pg, InvalidPageNum)
}

// MaxKey returns the largest key stored directly in this node: for a leaf,
// its last cell's key; for an internal node, its last stored separator key
// (not the subtree maximum — see SubtreeMaxKey for that).
func MaxKey(pg *storage.Page) uint32 {
	if NodeType(pg) == NodeLeaf {
		return LeafKey(pg, NumCells(pg)-1)
	}
	return InternalKey(pg, NumKeys(pg)-1)
}

// FindChild returns the smallest index i such that InternalKey(pg, i) >= key,
// or NumKeys(pg) if key exceeds every stored key.
func FindChild(pg *storage.Page, key uint32) uint32 {
	n := NumKeys(pg)
	lo, hi := uint32(0), n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if InternalKey(pg, mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// UpdateInternalNodeKey rewrites the cell whose key equals old to new.
func UpdateInternalNodeKey(pg *storage.Page, old, new uint32) {
	idx := FindChild(pg, old)
	SetInternalKey(pg, idx, new)
}

// SubtreeMaxKey returns the maximum key stored anywhere in the subtree
// rooted at pageNum: for a leaf, its own max key; for an internal node, the
// subtree max of its right child, descended recursively.
func SubtreeMaxKey(pager *storage.Pager, pageNum uint32) uint32 {
	pg := pager.GetPage(pageNum)
	if NodeType(pg) == NodeLeaf {
		return MaxKey(pg)
	}
	return SubtreeMaxKey(pager, RightChild(pg))
}
