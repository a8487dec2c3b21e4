package btree

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nrummel-labs/minidb/internal/storage"
)

func mustRow(t *testing.T, id uint32, username, email string) storage.Row {
	t.Helper()
	row, err := storage.NewRow(id, username, email)
	if err != nil {
		t.Fatalf("NewRow(%d) failed: %v", id, err)
	}
	return row
}

func TestInsertAndSelectSingleRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer table.Close()

	row := mustRow(t, 1, "user1", "person1@example.com")
	if err := table.Insert(row); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	cursor := table.Start()
	if cursor.EndOfTable {
		t.Fatal("cursor reports empty table after insert")
	}
	got := storage.DeserializeRow(cursor.Value())
	if got != row {
		t.Fatalf("got %+v, want %+v", got, row)
	}
	cursor.Advance()
	if !cursor.EndOfTable {
		t.Fatal("expected end of table after single row")
	}
}

func TestInsertRejectsDuplicateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer table.Close()

	if err := table.Insert(mustRow(t, 1, "a", "a@e")); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := table.Insert(mustRow(t, 1, "b", "b@e")); err != ErrDuplicateKey {
		t.Fatalf("second insert: got %v, want ErrDuplicateKey", err)
	}

	cursor := table.Start()
	count := 0
	for !cursor.EndOfTable {
		count++
		cursor.Advance()
	}
	if count != 1 {
		t.Fatalf("table has %d rows after rejected duplicate, want 1", count)
	}
}

func TestDataPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := table.Insert(mustRow(t, 1, "user1", "person1@example.com")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	cursor := reopened.Start()
	if cursor.EndOfTable {
		t.Fatal("reopened table is empty")
	}
	got := storage.DeserializeRow(cursor.Value())
	if got.ID != 1 || got.Username != "user1" {
		t.Fatalf("got %+v after reopen", got)
	}
}

// TestLeafSplitAtFourteenInserts matches the canonical "one internal node,
// two seven-cell leaves" shape split at key 7.
func TestLeafSplitAtFourteenInserts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer table.Close()

	for i := uint32(1); i <= 14; i++ {
		row := mustRow(t, i, "user", "person@example.com")
		if err := table.Insert(row); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	var buf bytes.Buffer
	table.PrintTree(&buf)

	want := strings.Join([]string{
		"- internal (size 1)",
		" - leaf (size 7)",
		"  - 1",
		"  - 2",
		"  - 3",
		"  - 4",
		"  - 5",
		"  - 6",
		"  - 7",
		" - key 7",
		" - leaf (size 7)",
		"  - 8",
		"  - 9",
		"  - 10",
		"  - 11",
		"  - 12",
		"  - 13",
		"  - 14",
		"",
	}, "\n")

	if buf.String() != want {
		t.Fatalf("tree dump after 14 inserts:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

// TestMultiLevelTreeInvariants drives enough shuffled inserts to force the
// internal level itself to split, then checks the universal invariants
// rather than a single golden dump: ascending in-order traversal with no
// duplicates, leaf cell counts summing to the insert count, and next_leaf
// links visiting every leaf exactly once.
func TestMultiLevelTreeInvariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer table.Close()

	const n = 60
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i + 1)
	}
	rand.New(rand.NewSource(1)).Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	for _, id := range ids {
		row := mustRow(t, id, "user", "person@example.com")
		if err := table.Insert(row); err != nil {
			t.Fatalf("insert %d failed: %v", id, err)
		}
	}

	cursor := table.Start()
	var prev uint32
	count := 0
	for !cursor.EndOfTable {
		row := storage.DeserializeRow(cursor.Value())
		if count > 0 && row.ID <= prev {
			t.Fatalf("traversal not strictly ascending: %d after %d", row.ID, prev)
		}
		prev = row.ID
		count++
		cursor.Advance()
	}
	if count != n {
		t.Fatalf("cursor visited %d rows, want %d", count, n)
	}

	// Walk next_leaf links from the leftmost leaf and confirm the same
	// per-leaf cell counts sum to n, terminating at next_leaf == 0.
	pageNum := table.Start().PageNum
	total := uint32(0)
	visited := 0
	for {
		pg := table.Pager().GetPage(pageNum)
		total += NumCells(pg)
		visited++
		next := NextLeaf(pg)
		if next == 0 {
			break
		}
		if visited > n {
			t.Fatal("next_leaf chain did not terminate")
		}
		pageNum = next
	}
	if total != n {
		t.Fatalf("sum of leaf cell counts = %d, want %d", total, n)
	}
}
