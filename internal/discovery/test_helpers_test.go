// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"path/filepath"
	"testing"

	"github.com/modloader/modloader/internal/config"
	"github.com/modloader/modloader/internal/logging"
	"github.com/modloader/modloader/internal/testutil"
)

var (
	jarBytes = testutil.JarBytes
	writeJar = testutil.WriteJar
	metadata = testutil.ModsToml
)

// newTestConfig returns a configuration with javafml 4.1.0 registered and
// modsDir as the only mods directory.
func newTestConfig(modsDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.ModsDirs = []string{modsDir}
	cfg.LanguageProviders = []config.LanguageProviderEntry{{Name: "javafml", Version: "4.1.0"}}
	cfg.Workers = 2
	cfg.ScanWorkers = 2
	return cfg
}

func newTestDiscovery(cfg *config.Config, opts ...Option) *Discovery {
	return New(cfg, append([]Option{WithLogger(logging.Discard())}, opts...)...)
}

func modsDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "mods")
	testutil.MustMkdirAll(t, dir)
	return dir
}
