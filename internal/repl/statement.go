package repl

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nrummel-labs/minidb/internal/btree"
	"github.com/nrummel-labs/minidb/internal/storage"
)

// ErrSyntax and ErrInvalidID carry the exact user-visible wording the
// original statement parser used.
var (
	ErrSyntax    = errors.New("Syntax error: Could not parse statement.")
	ErrInvalidID = errors.New("ID is invalid.")
)

type statementKind int

const (
	statementSelect statementKind = iota
	statementInsert
)

// Statement is a parsed, ready-to-execute SQL-ish command.
type Statement struct {
	kind statementKind
	row  storage.Row
}

// UnrecognizedError formats the message for an input line that matches
// neither a meta command nor a recognized statement.
func UnrecognizedError(input string) error {
	return fmt.Errorf("Unrecognized keyword at start of '%s'.", input)
}

// PrepareStatement parses a single input line into a Statement.
func PrepareStatement(line string) (Statement, error) {
	switch {
	case line == "select":
		return Statement{kind: statementSelect}, nil
	case strings.HasPrefix(line, "insert"):
		return prepareInsert(line)
	default:
		return Statement{}, UnrecognizedError(line)
	}
}

func prepareInsert(line string) (Statement, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Statement{}, ErrSyntax
	}
	idStr, username, email := fields[1], fields[2], fields[3]

	idVal, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || idVal < 0 || idVal > math.MaxUint32 {
		return Statement{}, ErrInvalidID
	}

	row, err := storage.NewRow(uint32(idVal), username, email)
	if err != nil {
		return Statement{}, err
	}
	return Statement{kind: statementInsert, row: row}, nil
}

// Execute runs the statement against table, writing any SELECT output to w.
func Execute(w io.Writer, stmt Statement, table *btree.Table) error {
	switch stmt.kind {
	case statementSelect:
		return executeSelect(w, table)
	case statementInsert:
		return table.Insert(stmt.row)
	default:
		return errors.Newf("repl: unknown statement kind %d", stmt.kind)
	}
}

func executeSelect(w io.Writer, table *btree.Table) error {
	cursor := table.Start()
	for !cursor.EndOfTable {
		row := storage.DeserializeRow(cursor.Value())
		fmt.Fprintf(w, "(%d, %s, %s)\n", row.ID, row.Username, row.Email)
		cursor.Advance()
	}
	return nil
}
