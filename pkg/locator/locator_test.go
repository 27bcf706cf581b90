// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modloader/modloader/internal/logging"
	"github.com/modloader/modloader/pkg/jar"
	"github.com/modloader/modloader/pkg/modfile"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func openModFile(t *testing.T, name string, files map[string]string) *modfile.ModFile {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, zipBytes(t, files), 0o644); err != nil {
		t.Fatal(err)
	}
	j, err := jar.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = j.Close() })

	f, err := modfile.New(j, modfile.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func jarJarMetadata(entries ...string) string {
	return `{"jars": [` + strings.Join(entries, ",") + `]}`
}

func jarJarEntry(group, artifact, ver, path string) string {
	return `{"identifier": {"group": "` + group + `", "artifact": "` + artifact + `"},` +
		`"version": {"range": "[1,)", "artifactVersion": "` + ver + `"},` +
		`"path": "` + path + `", "isObfuscated": false}`
}

func TestLoadResourceFromModFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: logging.LevelTrace}))
	l := New(logger)
	f := openModFile(t, "example.jar", map[string]string{"META-INF/present.txt": "hello"})

	data, ok := l.LoadResourceFromModFile(context.Background(), f, "META-INF/present.txt")
	if !ok || string(data) != "hello" {
		t.Errorf("LoadResourceFromModFile() = %q, %v", data, ok)
	}

	for _, p := range []string{"META-INF/absent.txt", "../escape.txt", ""} {
		data, ok := l.LoadResourceFromModFile(context.Background(), f, p)
		if ok || data != nil {
			t.Errorf("LoadResourceFromModFile(%q) = %q, %v; want empty", p, data, ok)
		}
	}

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG-4") || !strings.Contains(out, "META-INF/absent.txt") {
		t.Errorf("absent resource not logged at trace level: %s", out)
	}
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("invalid resource path not logged as error: %s", out)
	}
}

func TestLoadResourceFromModFile_Cancelled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, nil)))
	f := openModFile(t, "example.jar", map[string]string{"META-INF/present.txt": "hello"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data, ok := l.LoadResourceFromModFile(ctx, f, "META-INF/present.txt")
	if ok || data != nil {
		t.Errorf("LoadResourceFromModFile() with cancelled context = %q, %v; want empty", data, ok)
	}
	if out := buf.String(); !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "context canceled") {
		t.Errorf("cancellation not logged as error: %s", out)
	}
}

func TestLoadModFileFrom(t *testing.T) {
	t.Parallel()

	inner := zipBytes(t, map[string]string{
		jar.ManifestPath: "FMLModType: LIBRARY\nImplementation-Version: 3.1\n",
	})
	outer := openModFile(t, "outer.jar", map[string]string{
		"META-INF/jarjar/inner.jar": string(inner),
		"META-INF/jarjar/bad.jar":   "not a zip",
	})
	l := New(logging.Discard())

	f, err := l.LoadModFileFrom(outer, "META-INF/jarjar/inner.jar")
	if err != nil {
		t.Fatalf("LoadModFileFrom() returned error: %v", err)
	}
	if IdentifyMod(f) != "inner.jar" || f.Type() != modfile.TypeLibrary || f.JarVersion().String() != "3.1" {
		t.Errorf("nested mod file = %s type=%s version=%s", IdentifyMod(f), f.Type(), f.JarVersion())
	}
	if !strings.HasSuffix(f.Path(), "outer.jar!/META-INF/jarjar/inner.jar") {
		t.Errorf("Path() = %s", f.Path())
	}

	for _, p := range []string{"META-INF/jarjar/bad.jar", "META-INF/jarjar/missing.jar"} {
		_, err := l.LoadModFileFrom(outer, p)
		var loadErr *ModFileLoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("LoadModFileFrom(%q) error = %v, want ModFileLoadError", p, err)
		}
		if loadErr.Container != "outer.jar" || !errors.Is(err, ErrModFileLoad) {
			t.Errorf("LoadModFileFrom(%q) error = %+v", p, loadErr)
		}
	}
}

func TestJarInJar(t *testing.T) {
	t.Parallel()

	lib := func(v string) string {
		return string(zipBytes(t, map[string]string{jar.ManifestPath: "FMLModType: GAMELIBRARY\nImplementation-Version: " + v + "\n"}))
	}

	first := openModFile(t, "first.jar", map[string]string{
		JarInJarMetadata: jarJarMetadata(
			jarJarEntry("net.example", "shared", "1.0", "META-INF/jarjar/shared-1.0.jar"),
			jarJarEntry("net.example", "only-first", "", "META-INF/jarjar/only-first.jar"),
		),
		"META-INF/jarjar/shared-1.0.jar": lib("1.0"),
		"META-INF/jarjar/only-first.jar": lib("0.3"),
	})
	second := openModFile(t, "second.jar", map[string]string{
		JarInJarMetadata: jarJarMetadata(
			jarJarEntry("net.example", "shared", "1.2", "META-INF/jarjar/shared-1.2.jar"),
		),
		"META-INF/jarjar/shared-1.2.jar": lib("1.2"),
	})
	broken := openModFile(t, "broken.jar", map[string]string{
		JarInJarMetadata: jarJarMetadata(
			jarJarEntry("net.example", "gone", "1.0", "META-INF/jarjar/gone.jar"),
		),
	})
	invalid := openModFile(t, "invalid.jar", map[string]string{JarInJarMetadata: "{"})
	plain := openModFile(t, "plain.jar", map[string]string{"a.txt": "a"})

	l := New(logging.Discard())
	nested, failures := l.JarInJar(context.Background(), []*modfile.ModFile{first, broken, second, invalid, plain})

	var names []string
	for _, f := range nested {
		names = append(names, IdentifyMod(f))
	}
	if strings.Join(names, ",") != "shared-1.2.jar,only-first.jar" {
		t.Errorf("nested = %v", names)
	}

	if len(failures) != 1 {
		t.Fatalf("failures = %v, want one", failures)
	}
	var loadErr *ModFileLoadError
	if !errors.As(failures[0], &loadErr) || loadErr.Container != "broken.jar" {
		t.Errorf("failure = %v", failures[0])
	}
}

func TestJarInJar_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := openModFile(t, "a.jar", map[string]string{"a.txt": "a"})
	nested, failures := New(slog.New(slog.NewTextHandler(io.Discard, nil))).JarInJar(ctx, []*modfile.ModFile{f})
	if len(nested) != 0 || len(failures) != 1 || !errors.Is(failures[0], context.Canceled) {
		t.Errorf("JarInJar() = %v, %v", nested, failures)
	}
}
