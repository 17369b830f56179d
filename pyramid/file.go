package pyramid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"platetiler/geometry"
)

// DefaultTemplate lays tiles out as <level>/<x>/<y>.<ext>.
const DefaultTemplate = "{z}/{x}/{y}.{ext}"

// FileSerializer stores each tile as a loose file under Root, named by a
// path template with {z}, {x}, {y} and {ext} placeholders.
type FileSerializer struct {
	Root        string
	Template    string
	Ext         string
	Compression Compression
}

// NewFileSerializer returns a serializer writing under root. An empty
// template selects DefaultTemplate.
func NewFileSerializer(root, template, ext string, c Compression) *FileSerializer {
	if template == "" {
		template = DefaultTemplate
	}
	return &FileSerializer{Root: root, Template: template, Ext: ext, Compression: c}
}

// Path returns the file holding t.
func (s *FileSerializer) Path(t geometry.TileAddress) string {
	p := strings.Replace(s.Template, "{x}", strconv.FormatUint(uint64(t.X), 10), -1)
	p = strings.Replace(p, "{y}", strconv.FormatUint(uint64(t.Y), 10), -1)
	p = strings.Replace(p, "{z}", strconv.FormatUint(uint64(t.Level), 10), -1)
	p = strings.Replace(p, "{ext}", s.Ext, -1)
	return filepath.Join(s.Root, filepath.FromSlash(p))
}

// Serialize writes the tile through a temporary file and a rename, so a
// tile file is either complete or missing.
func (s *FileSerializer) Serialize(t geometry.TileAddress, data []byte) error {
	body, err := s.Compression.encode(data)
	if err != nil {
		return err
	}
	name := s.Path(t)
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrapf(err, "create tile folder %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".tile-*")
	if err != nil {
		return errors.Wrapf(err, "create tile %s", t)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write tile %s", t)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write tile %s", t)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "publish tile %s", t)
	}
	return nil
}

// Deserialize reads the tile, returning nil when no file exists.
func (s *FileSerializer) Deserialize(t geometry.TileAddress) ([]byte, error) {
	body, err := os.ReadFile(s.Path(t))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read tile %s", t)
	}
	return s.Compression.decode(body)
}
