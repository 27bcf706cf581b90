// SPDX-License-Identifier: MPL-2.0

// Package jar exposes packaged archives (zip/jar files) and unpacked
// development directories through a single read-only [fs.FS] view with
// access to the archive manifest.
package jar

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Jar is an opened archive. It is safe for concurrent reads.
type Jar struct {
	path     string
	fsys     fs.FS
	manifest *Manifest
	closer   io.Closer
	dir      bool
}

// Open opens the archive at p. A directory is treated as an unpacked archive.
func Open(p string) (*Jar, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if info.IsDir() {
		return newJar(p, os.DirFS(p), nil, true)
	}

	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", p, err)
	}
	j, err := newJar(p, zr, zr, false)
	if err != nil {
		_ = zr.Close() // Best-effort cleanup; the manifest error is reported
		return nil, err
	}
	return j, nil
}

// OpenBytes opens an in-memory archive. name is used as the archive path and
// typically points inside a containing archive (e.g. "outer.jar!/META-INF/jarjar/inner.jar").
func OpenBytes(name string, data []byte) (*Jar, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", name, err)
	}
	return newJar(name, zr, nil, false)
}

func newJar(p string, fsys fs.FS, closer io.Closer, dir bool) (*Jar, error) {
	j := &Jar{path: p, fsys: fsys, closer: closer, dir: dir}

	f, err := fsys.Open(ManifestPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		j.manifest = NewManifest()
		return j, nil
	case err != nil:
		return nil, fmt.Errorf("failed to open manifest of %s: %w", p, err)
	}
	defer f.Close()

	m, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest in %s: %w", p, err)
	}
	j.manifest = m
	return j, nil
}

// Path returns the primary path of the archive.
func (j *Jar) Path() string { return j.path }

// FileName returns the last element of the archive path.
func (j *Jar) FileName() string {
	if _, inner, ok := strings.Cut(j.path, "!/"); ok {
		return path.Base(inner)
	}
	return filepath.Base(j.path)
}

// IsDir reports whether the archive is an unpacked directory.
func (j *Jar) IsDir() bool { return j.dir }

// FS returns the archive contents.
func (j *Jar) FS() fs.FS { return j.fsys }

// Manifest returns the archive manifest; never nil.
func (j *Jar) Manifest() *Manifest { return j.manifest }

// Resource cleans a slash-separated resource path relative to the archive root.
func Resource(elems ...string) (string, error) {
	if len(elems) == 0 {
		return "", errors.New("missing path")
	}
	p := path.Clean(strings.TrimPrefix(path.Join(elems...), "/"))
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("invalid resource path %q", path.Join(elems...))
	}
	return p, nil
}

// Open opens a resource.
func (j *Jar) Open(name string) (fs.File, error) {
	p, err := Resource(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return j.fsys.Open(p)
}

// ReadFile reads a whole resource.
func (j *Jar) ReadFile(name string) ([]byte, error) {
	p, err := Resource(name)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return fs.ReadFile(j.fsys, p)
}

// Exists reports whether a resource exists.
func (j *Jar) Exists(name string) bool {
	p, err := Resource(name)
	if err != nil {
		return false
	}
	_, err = fs.Stat(j.fsys, p)
	return err == nil
}

// Close releases the underlying file, if any.
func (j *Jar) Close() error {
	if j.closer == nil {
		return nil
	}
	return j.closer.Close()
}

// String implements fmt.Stringer.
func (j *Jar) String() string {
	return "Jar: " + j.path
}
