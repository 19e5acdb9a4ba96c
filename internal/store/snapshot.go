package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrSnapshot wraps every snapshot load/save failure.
var ErrSnapshot = errors.New("snapshot")

// Codec serializes a Store to and from a portable document.
type Codec interface {
	Encode(w io.Writer, s *Store) error
	Decode(r io.Reader) (*Store, error)
}

// Codecs by name. XML is the default document format.
var (
	XML  Codec = xmlCodec{}
	YAML Codec = yamlCodec{}
)

// ResourcePath returns the conventional snapshot location for basePackage
// under root: root/META-INF/reflections/<basePackage>-reflections.xml.
func ResourcePath(root, basePackage string) string {
	return filepath.Join(root, "META-INF", "reflections", basePackage+"-reflections.xml")
}

// CodecFor picks a document codec from a file extension.
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return XML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return nil, fmt.Errorf("%w: no codec for %q", ErrSnapshot, path)
}

func isDatabasePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Marshal encodes s with c.
func Marshal(c Codec, s *Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a document produced by Marshal.
func Unmarshal(c Codec, data []byte) (*Store, error) {
	return c.Decode(bytes.NewReader(data))
}

// MergeSnapshots decodes a and b and returns their union.
func MergeSnapshots(c Codec, a, b []byte) (*Store, error) {
	left, err := Unmarshal(c, a)
	if err != nil {
		return nil, err
	}
	right, err := Unmarshal(c, b)
	if err != nil {
		return nil, err
	}
	left.Merge(right)
	return left, nil
}

// SaveFile writes s to path, choosing the format from the extension. Document
// formats are written to a temporary file and renamed into place.
func SaveFile(path string, s *Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrSnapshot, path, err)
	}
	if isDatabasePath(path) {
		db, err := OpenSQLite(path)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Write(s)
	}

	c, err := CodecFor(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrSnapshot, path, err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Encode(tmp, s); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encode %s: %v", ErrSnapshot, path, err)
	}
	// CreateTemp creates the file 0600.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: save %s: %v", ErrSnapshot, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrSnapshot, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrSnapshot, path, err)
	}
	return nil
}

// LoadFile reads a snapshot written by SaveFile.
func LoadFile(path string) (*Store, error) {
	if isDatabasePath(path) {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: load %s: %v", ErrSnapshot, path, err)
		}
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.Read()
	}

	c, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrSnapshot, path, err)
	}
	defer f.Close()
	s, err := c.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrSnapshot, path, err)
	}
	return s, nil
}
