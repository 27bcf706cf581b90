// SPDX-License-Identifier: MPL-2.0

// Package discovery runs a mod discovery pass: it finds candidate archives in
// the configured mods directories, identifies them, loads the archives they
// embed, resolves their language providers and schedules their content scans.
//
// Problems with a single archive never abort a run. They are returned as
// Diagnostic values and the archive is left out of the result.
//
// File organization:
//   - discovery.go: Discovery, options and the Run pipeline
//   - discovery_files.go: candidate archive listing
//   - diagnostic.go: Diagnostic, codes and error classification
package discovery
