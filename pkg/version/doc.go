// SPDX-License-Identifier: MPL-2.0

// Package version parses artifact versions and Maven-style version ranges.
//
// Versions declared by archives and language providers are free-form. [Parse]
// never fails so that every declared version stays comparable, and [ParseRange]
// accepts the bracket syntax used in mod metadata files:
//
//	r, err := version.ParseRange("[4,)")
//	if err != nil {
//	    return err
//	}
//	ok := r.ContainsVersion(version.Parse("4.0.12"))
package version
