// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// SourceModsDir indicates the archive was found in a mods directory.
	SourceModsDir Source = iota
	// SourceJarInJar indicates the archive is embedded in another archive.
	SourceJarInJar
)

// Source represents where an archive was found.
type Source int

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceModsDir:
		return "mods directory"
	case SourceJarInJar:
		return "jar-in-jar"
	default:
		return "unknown"
	}
}

// listCandidates returns the archives and unpacked mod directories directly
// inside dir, sorted by name. Hidden entries and directories without a
// META-INF directory are skipped.
func listCandidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		p := filepath.Join(dir, name)
		if e.IsDir() && isUnpackedMod(p) || !e.IsDir() && isArchiveName(name) {
			out = append(out, p)
		}
	}

	slices.Sort(out)
	return out, nil
}

// isUnpackedMod reports whether dir looks like an exploded archive.
func isUnpackedMod(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "META-INF"))
	return err == nil && info.IsDir()
}

func isArchiveName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jar" || ext == ".zip"
}
