package pyramid

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Compression is applied to loose tile files on disk. Payloads handed to
// and returned from serializers are always uncompressed.
type Compression int

const (
	NoCompression Compression = iota
	Gzip
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case LZ4:
		return "lz4"
	}
	return "none"
}

// ParseCompression accepts "none", "gzip" or "lz4".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NoCompression, nil
	case "gzip":
		return Gzip, nil
	case "lz4":
		return LZ4, nil
	}
	return 0, errors.Errorf("unknown compression %q", s)
}

func (c Compression) encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case Gzip:
		w = gzip.NewWriter(&buf)
	case LZ4:
		w = lz4.NewWriter(&buf)
	default:
		return data, nil
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrapf(err, "%s compress", c)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "%s compress", c)
	}
	return buf.Bytes(), nil
}

func (c Compression) decode(data []byte) ([]byte, error) {
	var r io.Reader
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "gzip decompress")
		}
		defer zr.Close()
		r = zr
	case LZ4:
		r = lz4.NewReader(bytes.NewReader(data))
	default:
		return data, nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s decompress", c)
	}
	return out, nil
}
