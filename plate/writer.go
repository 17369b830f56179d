package plate

import (
	"math"
	"os"
	"sync"

	"github.com/pkg/errors"

	"platetiler/geometry"
)

// Writer is a plate file in its single write session. Any number of
// goroutines may call AddStream; payloads are appended and the index is
// kept in memory until UpdateHeaderAndClose writes it out. A file whose
// session never finished has a zero index and serves no tiles.
type Writer struct {
	path   string
	levels uint32

	mu     sync.Mutex
	file   *os.File
	index  []byte
	eof    int64
	closed bool
}

// Create truncates path and reserves the header and a zero-filled index
// for levels levels.
func Create(path string, levels uint32) (*Writer, error) {
	if err := checkLevels(levels); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "create plate %s", path)
	}
	size := HeaderSize(levels)
	if _, err := f.WriteAt(encodePrefix(levels), 0); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "write plate header %s", path)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "allocate plate index %s", path)
	}
	return &Writer{
		path:   path,
		levels: levels,
		file:   f,
		index:  make([]byte, size-prefixSize),
		eof:    size,
	}, nil
}

// Path returns the file path.
func (w *Writer) Path() string { return w.path }

// Levels returns the number of levels the plate indexes.
func (w *Writer) Levels() uint32 { return w.levels }

// AddStream appends data as the payload of tile t.
func (w *Writer) AddStream(t geometry.TileAddress, data []byte) error {
	if err := inPlate(t, w.levels); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.eof+int64(len(data)) > math.MaxUint32 {
		return errors.Wrapf(ErrFull, "%s: %d bytes at %d", t, len(data), w.eof)
	}
	if _, err := w.file.WriteAt(data, w.eof); err != nil {
		return errors.Wrapf(err, "append %s to %s", t, w.path)
	}
	slot := Offset(t) - prefixSize
	putEntry(w.index[slot:], IndexEntry{Start: uint32(w.eof), Length: uint32(len(data))})
	w.eof += int64(len(data))
	return nil
}

// Entry returns the index record of t: from memory during the session,
// from the finished file once the session is closed.
func (w *Writer) Entry(t geometry.TileAddress) (IndexEntry, error) {
	if err := inPlate(t, w.levels); err != nil {
		return IndexEntry{}, err
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		r, err := Open(w.path)
		if err != nil {
			return IndexEntry{}, err
		}
		defer r.Close()
		return r.Entry(t)
	}
	defer w.mu.Unlock()
	return readEntry(w.index[Offset(t)-prefixSize:]), nil
}

// Tile returns the payload of t, or nil if absent. A closed writer reads
// the finished file.
func (w *Writer) Tile(t geometry.TileAddress) ([]byte, error) {
	if err := inPlate(t, w.levels); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ReadTile(w.path, t)
	}
	e := readEntry(w.index[Offset(t)-prefixSize:])
	if e.Length == 0 {
		return nil, nil
	}
	buf := make([]byte, e.Length)
	if _, err := w.file.ReadAt(buf, int64(e.Start)); err != nil {
		return nil, errors.Wrapf(err, "read %s from %s", t, w.path)
	}
	return buf, nil
}

// UpdateHeaderAndClose writes the index and closes the file.
func (w *Writer) UpdateHeaderAndClose() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	if _, err := w.file.WriteAt(w.index, prefixSize); err != nil {
		w.file.Close()
		return errors.Wrapf(err, "write plate index %s", w.path)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return errors.Wrapf(err, "sync plate %s", w.path)
	}
	w.index = nil
	return w.file.Close()
}
