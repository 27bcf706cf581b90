// SPDX-License-Identifier: MPL-2.0

package jar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	// ManifestPath is the location of the manifest inside an archive.
	ManifestPath = "META-INF/MANIFEST.MF"

	// AttrImplementationVersion is the standard implementation version attribute.
	AttrImplementationVersion = "Implementation-Version"
)

// Manifest holds the attributes of a JAR manifest. Attribute names are
// matched case-insensitively.
type Manifest struct {
	main     map[string]string
	sections map[string]map[string]string
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		main:     make(map[string]string),
		sections: make(map[string]map[string]string),
	}
}

// ParseManifest reads a manifest. Lines starting with a single space continue
// the previous value; a blank line ends the main section and each following
// section starts with a "Name:" attribute.
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := NewManifest()
	current := m.main
	var lastKey string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" {
			current = nil
			lastKey = ""
			continue
		}

		if strings.HasPrefix(line, " ") {
			if current == nil || lastKey == "" {
				return nil, fmt.Errorf("manifest line %d: continuation without attribute", lineNo)
			}
			current[lastKey] += line[1:]
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("manifest line %d: invalid attribute %q", lineNo, line)
		}
		key := strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimPrefix(value, " ")

		if current == nil {
			if key != "name" {
				return nil, fmt.Errorf("manifest line %d: section must start with Name", lineNo)
			}
			current = make(map[string]string)
			m.sections[value] = current
		}
		current[key] = value
		lastKey = key
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return m, nil
}

// Value returns a main attribute.
func (m *Manifest) Value(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.main[strings.ToLower(name)]
	return v, ok
}

// SectionValue returns an attribute from a named section.
func (m *Manifest) SectionValue(section, name string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m.sections[section]
	if !ok {
		return "", false
	}
	v, ok := s[strings.ToLower(name)]
	return v, ok
}

// Len returns the number of main attributes.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.main)
}
