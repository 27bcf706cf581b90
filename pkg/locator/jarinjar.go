// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modloader/modloader/pkg/modfile"
	"github.com/modloader/modloader/pkg/version"
)

// JarInJarMetadata lists the archives embedded in an archive.
const JarInJarMetadata = "META-INF/jarjar/metadata.json"

type (
	jarInJarMetadata struct {
		Jars []jarInJarEntry `json:"jars"`
	}

	jarInJarEntry struct {
		Identifier struct {
			Group    string `json:"group"`
			Artifact string `json:"artifact"`
		} `json:"identifier"`
		Version struct {
			Range           string `json:"range"`
			ArtifactVersion string `json:"artifactVersion"`
		} `json:"version"`
		Path string `json:"path"`
	}

	candidate struct {
		file    *modfile.ModFile
		version version.Version
	}
)

func (e jarInJarEntry) key() string {
	if e.Identifier.Group == "" && e.Identifier.Artifact == "" {
		return ""
	}
	return e.Identifier.Group + ":" + e.Identifier.Artifact
}

// JarInJar loads the archives embedded in containers through their
// jarjar metadata. When several containers embed the same artifact, the
// highest declared version is kept. Archives with the same identity as an
// already selected one are dropped.
//
// A failure to load any embedded archive abandons the nested archives of
// that container only; its error is returned in failures.
func (l *Locator) JarInJar(ctx context.Context, containers []*modfile.ModFile) (nested []*modfile.ModFile, failures []error) {
	selected := make(map[string]candidate)
	var order []string

	for _, container := range containers {
		if err := ctx.Err(); err != nil {
			failures = append(failures, fmt.Errorf("jar-in-jar discovery canceled: %w", err))
			break
		}

		entries, ok := l.readMetadata(ctx, container)
		if !ok {
			continue
		}

		loaded, err := l.loadEntries(container, entries)
		if err != nil {
			failures = append(failures, err)
			continue
		}

		for i, f := range loaded {
			key := entries[i].key()
			if key == "" {
				key = IdentifyMod(f)
			}
			v := version.Parse(entries[i].Version.ArtifactVersion)
			if entries[i].Version.ArtifactVersion == "" {
				v = f.JarVersion()
			}

			prev, exists := selected[key]
			switch {
			case !exists:
				order = append(order, key)
				selected[key] = candidate{file: f, version: v}
			case v.Compare(prev.version) > 0:
				l.logger.Debug("replacing embedded archive with a newer version",
					"artifact", key, "version", v.String(), "previous", prev.version.String())
				selected[key] = candidate{file: f, version: v}
			default:
				l.logger.Debug("skipping embedded archive", "artifact", key, "version", v.String(),
					"selected", prev.version.String(), "container", IdentifyMod(container))
			}
		}
	}

	seen := make(map[string]bool, len(order))
	for _, key := range order {
		f := selected[key].file
		id := IdentifyMod(f)
		if seen[id] {
			l.logger.Warn("dropping embedded archive with duplicate identity", "file", id, "artifact", key)
			continue
		}
		seen[id] = true
		nested = append(nested, f)
	}

	return nested, failures
}

func (l *Locator) readMetadata(ctx context.Context, container *modfile.ModFile) ([]jarInJarEntry, bool) {
	data, ok := l.LoadResourceFromModFile(ctx, container, JarInJarMetadata)
	if !ok {
		return nil, false
	}

	var md jarInJarMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		l.logger.ErrorContext(ctx, "invalid jar-in-jar metadata", "file", IdentifyMod(container), "error", err)
		return nil, false
	}
	return md.Jars, true
}

func (l *Locator) loadEntries(container *modfile.ModFile, entries []jarInJarEntry) ([]*modfile.ModFile, error) {
	loaded := make([]*modfile.ModFile, 0, len(entries))
	for _, e := range entries {
		f, err := l.LoadModFileFrom(container, e.Path)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}
