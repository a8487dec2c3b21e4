package storage

import "testing"

func TestNewRowRoundTrip(t *testing.T) {
	row, err := NewRow(7, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("NewRow failed: %v", err)
	}

	buf := make([]byte, RowSize)
	row.Serialize(buf)

	got := DeserializeRow(buf)
	if got.ID != 7 || got.Username != "alice" || got.Email != "alice@example.com" {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestNewRowRejectsOversizedFields(t *testing.T) {
	longUsername := make([]byte, UsernameSize+1)
	for i := range longUsername {
		longUsername[i] = 'a'
	}
	if _, err := NewRow(1, string(longUsername), "a@b.com"); err != ErrStringTooLong {
		t.Fatalf("expected ErrStringTooLong for long username, got %v", err)
	}

	longEmail := make([]byte, EmailSize+1)
	for i := range longEmail {
		longEmail[i] = 'a'
	}
	if _, err := NewRow(1, "alice", string(longEmail)); err != ErrStringTooLong {
		t.Fatalf("expected ErrStringTooLong for long email, got %v", err)
	}
}

func TestRowSizeIsFixed(t *testing.T) {
	if RowSize != 291 {
		t.Fatalf("RowSize = %d, want 291", RowSize)
	}
}
