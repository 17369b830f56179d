package pyramid

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"platetiler/geometry"
)

const mbtilesSchema = `
CREATE TABLE IF NOT EXISTS metadata (name TEXT PRIMARY KEY, value TEXT);
CREATE TABLE IF NOT EXISTS tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB);
CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
`

// MBTiles stores a Mercator pyramid in an MBTiles SQLite database. Rows
// are kept in the TMS convention, so y is flipped on the way in and out.
type MBTiles struct {
	db *sqlx.DB
}

// OpenMBTiles opens or creates the database at path.
func OpenMBTiles(path string) (*MBTiles, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open mbtiles %s", path)
	}
	// sqlite takes one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(mbtilesSchema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create mbtiles schema %s", path)
	}
	return &MBTiles{db: db}, nil
}

func flipY(t geometry.TileAddress) uint32 {
	return geometry.TilesPerSide(t.Level) - 1 - t.Y
}

// SetMetadata records one name/value pair of the metadata table.
func (m *MBTiles) SetMetadata(name, value string) error {
	_, err := m.db.Exec(`INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)`, name, value)
	return errors.Wrapf(err, "set mbtiles metadata %s", name)
}

func (m *MBTiles) Serialize(t geometry.TileAddress, data []byte) error {
	_, err := m.db.Exec(`INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
		t.Level, t.X, flipY(t), data)
	return errors.Wrapf(err, "store tile %s", t)
}

func (m *MBTiles) Deserialize(t geometry.TileAddress) ([]byte, error) {
	var data []byte
	err := m.db.Get(&data, `SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		t.Level, t.X, flipY(t))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load tile %s", t)
	}
	return data, nil
}

// Close closes the database.
func (m *MBTiles) Close() error {
	return m.db.Close()
}
