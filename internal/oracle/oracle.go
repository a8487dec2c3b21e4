// Package oracle cross-checks the B+Tree table against an independent
// store: every row passed to Put is mirrored into a Pebble database, and
// Verify walks the table's cursor scan against those rows and reports every
// key on which the two disagree. The oracle only knows the rows it was given;
// it does not observe the table's inserts itself.
package oracle

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/nrummel-labs/minidb/internal/btree"
	"github.com/nrummel-labs/minidb/internal/storage"
)

// Oracle wraps a Pebble instance used purely as a second, independently
// implemented index over the same rows.
type Oracle struct {
	db *pebble.DB
}

// Open opens (or creates) a Pebble database at dir.
func Open(dir string) (*Oracle, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "oracle: open %s", dir)
	}
	return &Oracle{db: db}, nil
}

// Close shuts down the underlying Pebble instance.
func (o *Oracle) Close() error {
	return o.db.Close()
}

// Put mirrors a row's serialized bytes under its id.
func (o *Oracle) Put(row storage.Row) error {
	buf := make([]byte, storage.RowSize)
	row.Serialize(buf)
	if err := o.db.Set(encodeKey(row.ID), buf, pebble.NoSync); err != nil {
		return errors.Wrap(err, "oracle: put")
	}
	return nil
}

// Mismatch describes a single disagreement found by Verify.
type Mismatch struct {
	Key    uint32
	Reason string
}

// Verify walks table's cursor scan against rows previously recorded via Put,
// catching any id the tree lost, duplicated, or returned differing bytes
// for, plus any id the oracle has that the tree scan never produced.
func Verify(table *btree.Table, o *Oracle) ([]Mismatch, error) {
	var mismatches []Mismatch
	seen := make(map[uint32]bool)

	cursor := table.Start()
	for !cursor.EndOfTable {
		row := storage.DeserializeRow(cursor.Value())
		if seen[row.ID] {
			mismatches = append(mismatches, Mismatch{Key: row.ID, Reason: "duplicate key returned by cursor scan"})
		}
		seen[row.ID] = true

		want, closer, err := o.db.Get(encodeKey(row.ID))
		if errors.Is(err, pebble.ErrNotFound) {
			mismatches = append(mismatches, Mismatch{Key: row.ID, Reason: "present in tree, absent from oracle"})
			cursor.Advance()
			continue
		}
		if err != nil {
			return mismatches, errors.Wrap(err, "oracle: get")
		}
		got := make([]byte, storage.RowSize)
		row.Serialize(got)
		if !bytesEqual(want, got) {
			mismatches = append(mismatches, Mismatch{Key: row.ID, Reason: "row bytes differ from oracle"})
		}
		closer.Close()
		cursor.Advance()
	}

	iter, err := o.db.NewIter(nil)
	if err != nil {
		return mismatches, errors.Wrap(err, "oracle: iterate")
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		k := decodeKey(iter.Key())
		if !seen[k] {
			mismatches = append(mismatches, Mismatch{Key: k, Reason: "present in oracle, absent from tree"})
		}
	}
	return mismatches, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func encodeKey(k uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, k)
	return b
}

func decodeKey(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}
