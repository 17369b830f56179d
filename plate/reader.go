package plate

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"platetiler/geometry"
)

// Reader serves tiles from a finished plate file. Only the record of the
// requested tile is read, never the whole index. It is safe for
// concurrent use.
type Reader struct {
	path   string
	levels uint32
	size   int64
	file   *os.File
}

// Open validates the header of path and returns a reader for it.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open plate %s", path)
	}
	r, err := newReader(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(path string, f *os.File) (*Reader, error) {
	prefix := make([]byte, prefixSize)
	if _, err := io.ReadFull(f, prefix); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%s: short header: %v", path, err)
	}
	if binary.LittleEndian.Uint32(prefix) != Magic {
		return nil, errors.Wrap(ErrBadMagic, path)
	}
	levels := binary.LittleEndian.Uint32(prefix[4:])
	if err := checkLevels(levels); err != nil {
		return nil, errors.Wrap(err, path)
	}
	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat plate %s", path)
	}
	if st.Size() < HeaderSize(levels) {
		return nil, errors.Wrapf(ErrCorrupt, "%s: %d bytes, index needs %d", path, st.Size(), HeaderSize(levels))
	}
	return &Reader{path: path, levels: levels, size: st.Size(), file: f}, nil
}

// Path returns the file path.
func (r *Reader) Path() string { return r.path }

// Levels returns the number of levels the plate indexes.
func (r *Reader) Levels() uint32 { return r.levels }

// Entry reads the index record of t.
func (r *Reader) Entry(t geometry.TileAddress) (IndexEntry, error) {
	if err := inPlate(t, r.levels); err != nil {
		return IndexEntry{}, err
	}
	buf := make([]byte, entrySize)
	if _, err := r.file.ReadAt(buf, Offset(t)); err != nil {
		return IndexEntry{}, errors.Wrapf(err, "read index of %s in %s", t, r.path)
	}
	e := readEntry(buf)
	if e.Length > 0 && (int64(e.Start) < HeaderSize(r.levels) || int64(e.Start)+int64(e.Length) > r.size) {
		return IndexEntry{}, errors.Wrapf(ErrCorrupt, "%s: %s points at [%d,+%d)", r.path, t, e.Start, e.Length)
	}
	return e, nil
}

// Tile returns the payload of t, or nil if the tile is absent.
func (r *Reader) Tile(t geometry.TileAddress) ([]byte, error) {
	e, err := r.Entry(t)
	if err != nil || e.Length == 0 {
		return nil, err
	}
	buf := make([]byte, e.Length)
	if _, err := r.file.ReadAt(buf, int64(e.Start)); err != nil {
		return nil, errors.Wrapf(err, "read %s from %s", t, r.path)
	}
	return buf, nil
}

// Close releases the file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadTile opens path, reads one tile and closes the file again.
func ReadTile(path string, t geometry.TileAddress) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Tile(t)
}
