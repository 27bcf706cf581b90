// SPDX-License-Identifier: MPL-2.0

// Package config loads the modloader configuration using Viper with CUE as
// the file format.
//
// The file is looked up at an explicit path, then in the user configuration
// directory (modloader/config.cue under $XDG_CONFIG_HOME, ~/Library/Application
// Support or %APPDATA%), then as ./config.cue. Without a file the defaults
// apply. Every file is validated against the embedded config_schema.cue, and
// scalar settings may be overridden with MODLOADER_* environment variables.
package config
