package storage

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const (
	UsernameSize = 32
	EmailSize    = 255
	// RowSize is the serialized width of a Row: a little-endian u32 id
	// followed by the two fixed, zero-padded string fields.
	RowSize = 4 + UsernameSize + EmailSize
)

// ErrStringTooLong is returned when username or email overflows its fixed
// byte budget.
var ErrStringTooLong = errors.New("String is too long.")

// Row is the fixed-shape record stored at every leaf cell.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// NewRow validates field widths and constructs a Row.
func NewRow(id uint32, username, email string) (Row, error) {
	if len(username) > UsernameSize {
		return Row{}, ErrStringTooLong
	}
	if len(email) > EmailSize {
		return Row{}, ErrStringTooLong
	}
	return Row{ID: id, Username: username, Email: email}, nil
}

// Serialize writes the row's on-disk representation into dst, which must be
// at least RowSize bytes.
func (r Row) Serialize(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.ID)
	var username [UsernameSize]byte
	var email [EmailSize]byte
	copy(username[:], r.Username)
	copy(email[:], r.Email)
	copy(dst[4:4+UsernameSize], username[:])
	copy(dst[4+UsernameSize:RowSize], email[:])
}

// DeserializeRow reads a Row back out of its on-disk representation.
func DeserializeRow(src []byte) Row {
	id := binary.LittleEndian.Uint32(src[0:4])
	username := trimZero(src[4 : 4+UsernameSize])
	email := trimZero(src[4+UsernameSize : RowSize])
	return Row{ID: id, Username: username, Email: email}
}

func trimZero(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
