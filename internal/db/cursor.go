package db

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"github.com/gamedeck/socialgraph/internal/models"
)

// ErrInvalidCursor is returned for a cursor this store did not issue
var ErrInvalidCursor = errors.New("invalid cursor")

// EdgePage is one page of a listing. NextCursor is empty on the last page.
type EdgePage struct {
	Edges      []models.Edge
	NextCursor string
}

// Cursor is the position of the last edge returned. Listings are ordered by
// (seq, other_id) descending, so both are needed when two edges share a seq.
type Cursor struct {
	Seq     int64
	OtherID string
}

// IsZero reports whether the cursor points at the start of a listing
func (c Cursor) IsZero() bool {
	return c.Seq == 0
}

// EncodeCursor returns the cursor continuing after the given edge
func EncodeCursor(seq int64, otherID string) string {
	return strconv.FormatInt(seq, 36) + "." + base64.RawURLEncoding.EncodeToString([]byte(otherID))
}

// DecodeCursor parses a cursor, returning the zero Cursor for the first page
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}
	seqPart, otherPart, ok := strings.Cut(cursor, ".")
	if !ok {
		return Cursor{}, ErrInvalidCursor
	}
	seq, err := strconv.ParseInt(seqPart, 36, 64)
	if err != nil || seq <= 0 {
		return Cursor{}, ErrInvalidCursor
	}
	other, err := base64.RawURLEncoding.DecodeString(otherPart)
	if err != nil || len(other) == 0 {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{Seq: seq, OtherID: string(other)}, nil
}
