// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include archive fixtures (JarBytes, WriteJar, Manifest),
// environment variable management (MustSetenv, SetHomeDir) and directory
// operations (MustMkdirAll).
package testutil
