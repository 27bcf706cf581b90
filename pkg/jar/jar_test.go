// SPDX-License-Identifier: MPL-2.0

package jar

import (
	"archive/zip"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestParseManifest(t *testing.T) {
	t.Parallel()

	input := "Manifest-Version: 1.0\r\n" +
		"FMLModType: LIBRARY\r\n" +
		"Implementation-Version: 1.2.\r\n" +
		" 3\r\n" +
		"\r\n" +
		"Name: com/example/\r\n" +
		"Sealed: true\r\n"

	m, err := ParseManifest(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseManifest() returned error: %v", err)
	}

	if v, ok := m.Value("fmlmodtype"); !ok || v != "LIBRARY" {
		t.Errorf("Value(FMLModType) = %q, %v; want LIBRARY", v, ok)
	}
	if v, _ := m.Value(AttrImplementationVersion); v != "1.2.3" {
		t.Errorf("continuation line not joined: %q", v)
	}
	if v, ok := m.SectionValue("com/example/", "Sealed"); !ok || v != "true" {
		t.Errorf("SectionValue() = %q, %v; want true", v, ok)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestParseManifest_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		" leading continuation\n",
		"no colon here\n",
		"A: b\n\nNotName: x\n",
	} {
		if _, err := ParseManifest(strings.NewReader(input)); err == nil {
			t.Errorf("ParseManifest(%q) expected error", input)
		}
	}
}

func TestOpen_ZipFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "example.jar")
	data := writeZip(t, map[string]string{
		ManifestPath:            "Manifest-Version: 1.0\nImplementation-Version: 2.0\n",
		"com/example/Mod.class": "cafebabe",
	})
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}

	j, err := Open(p)
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	defer j.Close()

	if j.IsDir() {
		t.Error("zip archive reported as directory")
	}
	if j.FileName() != "example.jar" {
		t.Errorf("FileName() = %q", j.FileName())
	}
	if v, _ := j.Manifest().Value(AttrImplementationVersion); v != "2.0" {
		t.Errorf("Implementation-Version = %q, want 2.0", v)
	}
	if !j.Exists("/com/example/Mod.class") {
		t.Error("Exists() should accept a leading slash")
	}
	if j.Exists("missing.txt") {
		t.Error("Exists() reported a missing resource")
	}
	if _, err := j.ReadFile("missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want fs.ErrNotExist", err)
	}
	if _, err := j.ReadFile("../escape"); err == nil {
		t.Error("ReadFile() should reject paths escaping the archive")
	}
}

func TestOpen_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "META-INF"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "META-INF", "accesstransformer.cfg"), []byte("public a.b"), 0o644); err != nil {
		t.Fatal(err)
	}

	j, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	defer j.Close()

	if !j.IsDir() {
		t.Error("directory archive not reported as directory")
	}
	if j.Manifest().Len() != 0 {
		t.Error("missing manifest should yield an empty manifest")
	}
	data, err := j.ReadFile("META-INF/accesstransformer.cfg")
	if err != nil || string(data) != "public a.b" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
}

func TestOpenBytes(t *testing.T) {
	t.Parallel()

	data := writeZip(t, map[string]string{"a.txt": "a"})
	j, err := OpenBytes("outer.jar!/META-INF/jarjar/inner.jar", data)
	if err != nil {
		t.Fatalf("OpenBytes() returned error: %v", err)
	}
	if j.FileName() != "inner.jar" {
		t.Errorf("FileName() = %q, want inner.jar", j.FileName())
	}
	if err := j.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}

	if _, err := OpenBytes("broken.jar", []byte("not a zip")); err == nil {
		t.Error("OpenBytes() expected error for corrupt data")
	}
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "missing.jar")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want fs.ErrNotExist", err)
	}
}
