// Package store persists an index as a single immutable blob on disk.
//
// The file extension picks the representation: ".json" for the JSON
// rendering, ".zst" for the zstd-compressed binary encoding, and the plain
// binary encoding for anything else.
package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/resolv-libs/resolv-data/internal/index"
)

// Format is an on-disk representation of an index.
type Format int

const (
	Binary Format = iota
	JSON
	Zstd
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case Zstd:
		return "zstd"
	default:
		return "binary"
	}
}

// FormatFor picks the format from path's extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".zst", ".zstd":
		return Zstd
	default:
		return Binary
	}
}

// Marshal renders x in format f.
func Marshal(x *index.Index, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return index.EncodeJSONIndent(x)
	case Zstd:
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, fmt.Errorf("cannot create zstd writer: %w", err)
		}
		if _, err := zw.Write(index.Encode(x)); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("cannot compress catalog: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("cannot compress catalog: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return index.Encode(x), nil
	}
}

// Read decodes an index in format f from r.
func Read(r io.Reader, f Format) (*index.Index, error) {
	switch f {
	case JSON:
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return index.DecodeJSON(b)
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("cannot open zstd stream: %w", err)
		}
		defer zr.Close()
		b, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("cannot decompress catalog: %w", err)
		}
		return index.Decode(b)
	default:
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return index.Decode(b)
	}
}

// Load reads the catalog at path. Published catalogs are immutable, so
// readers take no lock.
func Load(path string) (*index.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog %s: %w", path, err)
	}
	defer f.Close()

	x, err := Read(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog %s: %w", path, err)
	}
	return x, nil
}
