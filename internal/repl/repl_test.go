package repl

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nrummel-labs/minidb/internal/btree"
)

func openTable(t *testing.T) *btree.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	table, err := btree.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { table.Close() })
	return table
}

func TestSingleInsertAndSelect(t *testing.T) {
	table := openTable(t)
	in := strings.NewReader("insert 1 user1 person1@example.com\nselect\n")
	var out bytes.Buffer

	Run(in, &out, table)

	want := "db > Executed.\n" +
		"db > (1, user1, person1@example.com)\n" +
		"Executed.\n" +
		"db > "
	if out.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestDuplicateKeyMessage(t *testing.T) {
	table := openTable(t)
	in := strings.NewReader("insert 1 a a@e\ninsert 1 b b@e\nselect\n")
	var out bytes.Buffer

	Run(in, &out, table)

	want := "db > Executed.\n" +
		"db > Error: Duplicate key.\n" +
		"db > (1, a, a@e)\n" +
		"Executed.\n" +
		"db > "
	if out.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestNegativeIDIsInvalid(t *testing.T) {
	table := openTable(t)
	in := strings.NewReader("insert -1 foo bar@email.com\n")
	var out bytes.Buffer

	Run(in, &out, table)

	want := "db > ID is invalid.\ndb > "
	if out.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestUnrecognizedStatement(t *testing.T) {
	table := openTable(t)
	in := strings.NewReader("frobnicate\n")
	var out bytes.Buffer

	Run(in, &out, table)

	want := "db > Unrecognized keyword at start of 'frobnicate'.\ndb > "
	if out.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestPrintConstants(t *testing.T) {
	table := openTable(t)
	in := strings.NewReader(".constants\n")
	var out bytes.Buffer

	Run(in, &out, table)

	want := "db > ROW_SIZE: 291\n" +
		"COMMON_NODE_HEADER_SIZE: 6\n" +
		"LEAF_NODE_HEADER_SIZE: 14\n" +
		"LEAF_NODE_CELL_SIZE: 295\n" +
		"LEAF_NODE_SPACE_FOR_CELLS: 4082\n" +
		"LEAF_NODE_MAX_CELLS: 13\n" +
		"db > "
	if out.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestStringTooLong(t *testing.T) {
	table := openTable(t)
	longEmail := strings.Repeat("a", 256)
	in := strings.NewReader("insert 1 user1 " + longEmail + "\n")
	var out bytes.Buffer

	Run(in, &out, table)

	want := "db > String is too long.\ndb > "
	if out.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", out.String(), want)
	}
}
