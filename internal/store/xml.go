package store

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"unicode/utf8"
)

// categoryName restricts categories to names usable as XML elements.
var categoryName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidCategory reports whether name can be written as a category of the XML
// snapshot.
func ValidCategory(name string) bool {
	return categoryName.MatchString(name)
}

// xmlText reports whether s survives an XML round trip unchanged. The encoder
// replaces invalid UTF-8 and characters outside the XML Char production.
func xmlText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t', r == '\n', r == '\r':
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
			return false
		}
	}
	return true
}

// checkXML rejects stores the XML document cannot hold exactly.
func checkXML(s *Store) error {
	for _, c := range s.Categories() {
		if !ValidCategory(c) {
			return fmt.Errorf("%w: category %q is not a valid XML element name", ErrSnapshot, c)
		}
		for _, k := range s.Keys(c) {
			if !xmlText(k) {
				return fmt.Errorf("%w: %s key %q has characters XML cannot hold", ErrSnapshot, c, k)
			}
			for _, v := range s.Get(c, k) {
				if !xmlText(v) {
					return fmt.Errorf("%w: %s value %q has characters XML cannot hold", ErrSnapshot, c, v)
				}
			}
		}
	}
	return nil
}

// The XML document keeps the historical layout: one element per category,
// named after the category, holding key/values entries.
//
//	<Reflections>
//	  <SubTypesScanner>
//	    <entry>
//	      <key>com.acme.Base</key>
//	      <values>
//	        <value>com.acme.Impl</value>
//	      </values>
//	    </entry>
//	  </SubTypesScanner>
//	</Reflections>
type xmlDocument struct {
	XMLName    xml.Name      `xml:"Reflections"`
	Categories []xmlCategory `xml:",any"`
}

type xmlCategory struct {
	XMLName xml.Name
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Key    string   `xml:"key"`
	Values []string `xml:"values>value"`
}

type xmlCodec struct{}

func (xmlCodec) Encode(w io.Writer, s *Store) error {
	if err := checkXML(s); err != nil {
		return err
	}
	doc := xmlDocument{}
	for _, c := range s.Categories() {
		cat := xmlCategory{XMLName: xml.Name{Local: c}}
		for _, k := range s.Keys(c) {
			cat.Entries = append(cat.Entries, xmlEntry{Key: k, Values: s.Get(c, k)})
		}
		doc.Categories = append(doc.Categories, cat)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("xml encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("xml encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (xmlCodec) Decode(r io.Reader) (*Store, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("xml decode: %w", err)
	}
	s := New()
	for _, cat := range doc.Categories {
		for _, e := range cat.Entries {
			for _, v := range e.Values {
				s.Put(cat.XMLName.Local, e.Key, v)
			}
		}
	}
	return s, nil
}
