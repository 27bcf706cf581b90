// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents into Go values after validating them
// against an embedded schema.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Config](schema, data, "#Config",
//	    cueutil.WithFilename("config.cue"))
//
// Validation and decode errors name the offending field in JSON-path form,
// e.g. "config.cue: version_overrides[1].accept: conflicting values".
package cueutil
