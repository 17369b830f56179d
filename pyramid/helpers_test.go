package pyramid

import (
	"fmt"
	"sync"

	"platetiler/geometry"
)

type memStore struct {
	mu    sync.Mutex
	tiles map[geometry.TileAddress][]byte
}

func newMemStore() *memStore {
	return &memStore{tiles: make(map[geometry.TileAddress][]byte)}
}

func (m *memStore) Serialize(t geometry.TileAddress, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiles[t] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Deserialize(t geometry.TileAddress) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tiles[t], nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tiles)
}

type event struct {
	parent bool
	tile   geometry.TileAddress
}

// recorder persists a label per tile and keeps the order of calls.
type recorder struct {
	store *memStore
	fail  func(geometry.TileAddress) error
	after func(n int)

	mu     sync.Mutex
	events []event
}

func newRecorder() *recorder {
	return &recorder{store: newMemStore()}
}

func (r *recorder) record(e event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return len(r.events)
}

func (r *recorder) Create(t geometry.TileAddress) error {
	if r.fail != nil {
		if err := r.fail(t); err != nil {
			return err
		}
	}
	if err := r.store.Serialize(t, []byte(fmt.Sprintf("base %s", t))); err != nil {
		return err
	}
	n := r.record(event{tile: t})
	if r.after != nil {
		r.after(n)
	}
	return nil
}

func (r *recorder) CreateParent(t geometry.TileAddress) error {
	present := 0
	for _, c := range t.Children() {
		if data, _ := r.store.Deserialize(c); data != nil {
			present++
		}
	}
	if present == 0 {
		return ErrNoData
	}
	if err := r.store.Serialize(t, []byte(fmt.Sprintf("parent %s of %d", t, present))); err != nil {
		return err
	}
	n := r.record(event{parent: true, tile: t})
	if r.after != nil {
		r.after(n)
	}
	return nil
}
