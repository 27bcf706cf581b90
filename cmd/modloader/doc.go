// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modloader.
//
// The Cobra command tree is built by NewRootCommand around an App, the
// composition root holding the configuration provider, the discovery
// service and the diagnostic renderer.
package cmd
