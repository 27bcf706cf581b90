// SPDX-License-Identifier: MPL-2.0

package language

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeProviderJar(t *testing.T, p, manifest string) {
	t.Helper()

	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("META-INF/MANIFEST.MF")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestArchiveSource_Discover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeProviderJar(t, filepath.Join(dir, "lowcode.jar"),
		"Manifest-Version: 1.0\nFMLLanguageProvider: lowcode\nImplementation-Version: 2.1.0\n")
	writeProviderJar(t, filepath.Join(dir, "library.jar"), "Manifest-Version: 1.0\n")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	devDir := filepath.Join(dir, "kotlinlang")
	if err := os.MkdirAll(filepath.Join(devDir, "META-INF"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(devDir, "META-INF", "MANIFEST.MF"),
		[]byte("FMLLanguageProvider: kotlinlang\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := ArchiveSource{Dirs: []string{dir, filepath.Join(dir, "missing")}, Logger: discardLogger()}
	r, err := NewRegistry(context.Background(), Options{HostVersion: "4.0.12", Logger: discardLogger()}, src)
	if err != nil {
		t.Fatalf("NewRegistry() returned error: %v", err)
	}

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2: %v", r.Len(), r.Handles())
	}
	if h, ok := r.Lookup("lowcode"); !ok || h.Version.String() != "2.1.0" {
		t.Errorf("lowcode = %v, %v", h, ok)
	}
	if h, ok := r.Lookup("kotlinlang"); !ok || h.Version.String() != "4" {
		t.Errorf("kotlinlang should use the host major version, got %v, %v", h, ok)
	}
}

func TestArchiveSource_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeProviderJar(t, filepath.Join(dir, "a.jar"), "FMLLanguageProvider: a\nImplementation-Version: 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (ArchiveSource{Dirs: []string{dir}}).Discover(ctx); err == nil {
		t.Error("Discover() should fail with a cancelled context")
	}
}
