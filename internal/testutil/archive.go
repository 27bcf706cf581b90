// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"slices"
	"strings"
	"testing"
)

// JarBytes builds an in-memory archive holding files, written in name order
// so that the bytes are stable across runs.
func JarBytes(t testing.TB, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := io.WriteString(w, files[name]); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish archive: %v", err)
	}
	return buf.Bytes()
}

// WriteJar writes an archive holding files to path.
func WriteJar(t testing.TB, path string, files map[string]string) {
	t.Helper()
	if err := os.WriteFile(path, JarBytes(t, files), 0o644); err != nil {
		t.Fatalf("failed to write archive %s: %v", path, err)
	}
}

// Manifest renders a META-INF/MANIFEST.MF body from "Name: value" pairs
// given as alternating names and values.
func Manifest(attrs ...string) string {
	var sb strings.Builder
	sb.WriteString("Manifest-Version: 1.0\n")
	for i := 0; i+1 < len(attrs); i += 2 {
		sb.WriteString(attrs[i] + ": " + attrs[i+1] + "\n")
	}
	return sb.String()
}

// ModsToml renders a minimal mod metadata file declaring one mod.
func ModsToml(modID, modLoader, loaderVersion string) string {
	return `modLoader = "` + modLoader + `"
loaderVersion = "` + loaderVersion + `"
license = "MIT"

[[mods]]
modId = "` + modID + `"
version = "${file.jarVersion}"
`
}
