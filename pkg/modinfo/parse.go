// SPDX-License-Identifier: MPL-2.0

package modinfo

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/modloader/modloader/pkg/version"
)

// MaxFileSize is the largest metadata file that will be parsed.
const MaxFileSize = 1 << 20

var placeholderRegex = regexp.MustCompile(`\$\{file\.([^}]+)\}`)

type (
	rawFile struct {
		ModLoader          string                     `toml:"modLoader"`
		LoaderVersion      string                     `toml:"loaderVersion"`
		License            string                     `toml:"license"`
		Properties         map[string]any             `toml:"properties"`
		Mods               []rawMod                   `toml:"mods"`
		Mixins             []rawMixin                 `toml:"mixins"`
		AccessTransformers *[]rawAccessTransformer    `toml:"accessTransformers"`
		Dependencies       map[string][]rawDependency `toml:"dependencies"`
	}

	rawMod struct {
		ModID         string `toml:"modId"`
		Version       string `toml:"version"`
		DisplayName   string `toml:"displayName"`
		Description   string `toml:"description"`
		ModLoader     string `toml:"modLoader"`
		LoaderVersion string `toml:"loaderVersion"`
	}

	rawMixin struct {
		Config string `toml:"config"`
	}

	rawAccessTransformer struct {
		File string `toml:"file"`
	}

	rawDependency struct {
		ModID        string `toml:"modId"`
		Type         string `toml:"type"`
		VersionRange string `toml:"versionRange"`
		Side         string `toml:"side"`
	}
)

// Parse reads the metadata file from an archive. It returns (nil, nil) when
// the archive has no metadata file. Placeholders of the form ${file.<key>} in
// mod versions are replaced with values from subst.
func Parse(fsys fs.FS, subst map[string]any) (*FileInfo, error) {
	name := MetadataFile
	data, err := readLimited(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		name = LegacyMetadataFile
		data, err = readLimited(fsys, name)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return ParseBytes(name, data, subst)
}

// readLimited reads at most MaxFileSize+1 bytes of name, so an oversized
// file is rejected by ParseBytes without being read in full.
func readLimited(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxFileSize+1))
}

// ParseBytes parses metadata content. filename is only used in error messages.
func ParseBytes(filename string, data []byte, subst map[string]any) (*FileInfo, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), MaxFileSize)
	}

	var raw rawFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", filename, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	fi := &FileInfo{
		ModLoader:    raw.ModLoader,
		License:      raw.License,
		Properties:   raw.Properties,
		Dependencies: make(map[string][]Dependency, len(raw.Dependencies)),
	}
	if fi.ModLoader == "" {
		fi.ModLoader = DefaultLanguage
	}

	// File properties are visible to placeholders alongside the archive's own values.
	lookup := make(map[string]any, len(raw.Properties)+len(subst))
	for k, v := range raw.Properties {
		lookup[k] = v
	}
	for k, v := range subst {
		lookup[k] = v
	}

	var err error
	if fi.LoaderVersion, err = parseRange(filename, "loaderVersion", raw.LoaderVersion); err != nil {
		return nil, err
	}

	for i, rm := range raw.Mods {
		if !modIDRegex.MatchString(rm.ModID) {
			return nil, fmt.Errorf("%s: mods[%d]: %w", filename, i, &InvalidModIDError{ModID: rm.ModID})
		}
		mi := ModInfo{
			ModID:       rm.ModID,
			Version:     substitute(rm.Version, lookup),
			DisplayName: rm.DisplayName,
			Description: strings.TrimSpace(rm.Description),
			ModLoader:   rm.ModLoader,
		}
		if mi.Version == "" {
			mi.Version = "1"
		}
		if mi.DisplayName == "" {
			mi.DisplayName = mi.ModID
		}
		if mi.ModLoader != "" {
			field := fmt.Sprintf("mods[%d].loaderVersion", i)
			if mi.LoaderVersion, err = parseRange(filename, field, rm.LoaderVersion); err != nil {
				return nil, err
			}
		}
		fi.Mods = append(fi.Mods, mi)
	}

	for _, m := range raw.Mixins {
		fi.Mixins = append(fi.Mixins, m.Config)
	}

	if raw.AccessTransformers != nil {
		fi.AccessTransformersDeclared = true
		for _, at := range *raw.AccessTransformers {
			fi.AccessTransformers = append(fi.AccessTransformers, at.File)
		}
	}

	for modID, deps := range raw.Dependencies {
		for i, rd := range deps {
			field := fmt.Sprintf("dependencies.%s[%d].versionRange", modID, i)
			r, err := parseRange(filename, field, rd.VersionRange)
			if err != nil {
				return nil, err
			}
			depType := strings.ToLower(rd.Type)
			if depType == "" {
				depType = "required"
			}
			side := strings.ToUpper(rd.Side)
			if side == "" {
				side = "BOTH"
			}
			fi.Dependencies[modID] = append(fi.Dependencies[modID], Dependency{
				ModID:        rd.ModID,
				Type:         depType,
				VersionRange: r,
				Side:         side,
			})
		}
	}

	return fi, nil
}

func parseRange(filename, field, spec string) (version.Range, error) {
	r, err := version.ParseRange(spec)
	if err != nil {
		return version.Range{}, fmt.Errorf("%s: %s: %w", filename, field, err)
	}
	return r, nil
}

func substitute(s string, subst map[string]any) string {
	if len(subst) == 0 || !strings.Contains(s, "${") {
		return s
	}
	return placeholderRegex.ReplaceAllStringFunc(s, func(m string) string {
		key := placeholderRegex.FindStringSubmatch(m)[1]
		if v, ok := subst[key]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}
