package store

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlDocument maps category → key → values. yaml.v3 emits map keys sorted,
// so encoding is deterministic.
type yamlDocument map[string]map[string][]string

type yamlCodec struct{}

func (yamlCodec) Encode(w io.Writer, s *Store) error {
	doc := make(yamlDocument, len(s.categories))
	for _, c := range s.Categories() {
		keys := make(map[string][]string)
		for _, k := range s.Keys(c) {
			keys[k] = s.Get(c, k)
		}
		doc[c] = keys
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

func (yamlCodec) Decode(r io.Reader) (*Store, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return New(), nil
		}
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	s := New()
	for c, keys := range doc {
		for k, values := range keys {
			for _, v := range values {
				s.Put(c, k, v)
			}
		}
	}
	return s, nil
}
