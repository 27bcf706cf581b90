// SPDX-License-Identifier: MPL-2.0

// Package language indexes the language-runtime adapters ("language
// providers") available to a discovery run and resolves the providers an
// archive requests against version ranges.
//
// Providers are supplied explicitly through [Source] implementations; there is
// no ambient lookup. The [Registry] is built once, single-threaded, before any
// concurrent archive identification starts, and is read-only afterwards.
//
//	reg, err := language.NewRegistry(ctx, language.Options{HostVersion: "4.0.12"},
//	    language.StaticSource{language.NewStatic("javafml", "4.0.12", "")},
//	)
//	h, err := reg.FindLanguage(file, "javafml", version.MustParseRange("[4,)"))
package language
