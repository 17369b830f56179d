// Package plate reads and writes plate files: a single indexed container
// holding every tile of a pyramid.
//
// Layout, little-endian:
//
//	[u32 magic][u32 levelCount][index][payload]
//
// The index holds one {u32 start, u32 length} record per tile of levels
// 0..levelCount-1, level-major then row-major, so the record of any tile is
// found by arithmetic alone. A zero length marks an absent tile.
package plate

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"platetiler/geometry"
)

// Magic opens every plate file.
const Magic uint32 = 0x7E69AD43

const (
	prefixSize = 8
	entrySize  = 8
)

// MaxLevels keeps every index offset addressable by a u32 start field.
const MaxLevels = 15

var (
	ErrBadMagic      = errors.New("plate: bad magic number")
	ErrCorrupt       = errors.New("plate: corrupt file")
	ErrTooManyLevels = errors.New("plate: unsupported level count")
	ErrOutOfRange    = errors.New("plate: tile outside plate")
	ErrClosed        = errors.New("plate: file already closed")
	ErrFull          = errors.New("plate: payload beyond 4 GiB")
)

// IndexEntry locates one tile's payload. The zero value means absent.
type IndexEntry struct {
	Start  uint32
	Length uint32
}

// HeaderSize is the byte size of the magic, level count and index for a
// plate of the given level count; payload starts there.
func HeaderSize(levels uint32) int64 {
	return prefixSize + int64(geometry.LevelBase(levels))*entrySize
}

// Offset is the file position of t's index record.
func Offset(t geometry.TileAddress) int64 {
	return prefixSize + int64(t.Ordinal())*entrySize
}

func checkLevels(levels uint32) error {
	if levels == 0 || levels > MaxLevels {
		return errors.Wrapf(ErrTooManyLevels, "%d levels", levels)
	}
	return nil
}

func inPlate(t geometry.TileAddress, levels uint32) error {
	if t.Level >= levels || !t.Valid() {
		return errors.Wrapf(ErrOutOfRange, "%s in %d-level plate", t, levels)
	}
	return nil
}

func putEntry(b []byte, e IndexEntry) {
	binary.LittleEndian.PutUint32(b, e.Start)
	binary.LittleEndian.PutUint32(b[4:], e.Length)
}

func readEntry(b []byte) IndexEntry {
	return IndexEntry{
		Start:  binary.LittleEndian.Uint32(b),
		Length: binary.LittleEndian.Uint32(b[4:]),
	}
}

func encodePrefix(levels uint32) []byte {
	b := make([]byte, prefixSize)
	binary.LittleEndian.PutUint32(b, Magic)
	binary.LittleEndian.PutUint32(b[4:], levels)
	return b
}
