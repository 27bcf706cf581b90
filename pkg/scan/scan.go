// SPDX-License-Identifier: MPL-2.0

// Package scan holds the content inventory produced by scanning an archive
// and the bounded pool that runs scans off the identification path.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const classSuffix = ".class"

type (
	// ClassData describes one compiled class found in an archive.
	ClassData struct {
		// Name is the binary class name (e.g. "com.example.Mod").
		Name string
		// Path is the resource path inside the archive.
		Path string
		// Size is the uncompressed size in bytes.
		Size int64
	}

	// Data is the result of scanning one archive. It is never modified after
	// the scan that produced it returns.
	Data struct {
		classes   []ClassData
		resources []string
	}

	// Scanner enumerates the contents of an archive.
	Scanner interface {
		Scan(ctx context.Context, fsys fs.FS) (*Data, error)
	}

	// ScannerFunc adapts a function to the Scanner interface.
	ScannerFunc func(ctx context.Context, fsys fs.FS) (*Data, error)

	// ArchiveScanner walks an archive and records classes and resources.
	ArchiveScanner struct{}
)

// NewData builds an immutable Data from the given entries.
func NewData(classes []ClassData, resources []string) *Data {
	d := &Data{
		classes:   append([]ClassData(nil), classes...),
		resources: append([]string(nil), resources...),
	}
	sort.Slice(d.classes, func(i, j int) bool { return d.classes[i].Name < d.classes[j].Name })
	sort.Strings(d.resources)
	return d
}

// Classes returns a copy of the class inventory, sorted by name.
func (d *Data) Classes() []ClassData {
	if d == nil {
		return nil
	}
	return append([]ClassData(nil), d.classes...)
}

// Resources returns a copy of the non-class resource paths, sorted.
func (d *Data) Resources() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.resources...)
}

// HasClass reports whether the archive contains the named class.
func (d *Data) HasClass(name string) bool {
	if d == nil {
		return false
	}
	i := sort.Search(len(d.classes), func(i int) bool { return d.classes[i].Name >= name })
	return i < len(d.classes) && d.classes[i].Name == name
}

// Scan implements Scanner.
func (f ScannerFunc) Scan(ctx context.Context, fsys fs.FS) (*Data, error) {
	return f(ctx, fsys)
}

// Scan implements Scanner. The walk stops early if ctx is cancelled.
func (ArchiveScanner) Scan(ctx context.Context, fsys fs.FS) (*Data, error) {
	var classes []ClassData
	var resources []string

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if !strings.HasSuffix(p, classSuffix) {
			resources = append(resources, p)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		classes = append(classes, ClassData{
			Name: classNameFromPath(p),
			Path: p,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive: %w", err)
	}

	return NewData(classes, resources), nil
}

func classNameFromPath(p string) string {
	p = strings.TrimSuffix(p, classSuffix)
	if strings.HasPrefix(p, "META-INF/versions/") {
		// Multi-release entries: META-INF/versions/<n>/<class path>
		parts := strings.SplitN(p, "/", 4)
		if len(parts) == 4 {
			p = parts[3]
		}
	}
	return strings.ReplaceAll(path.Clean(p), "/", ".")
}
