// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiscoverCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeModJar(t, filepath.Join(dir, "goodmod.jar"), "javafml", "[4,)")
	writeModJar(t, filepath.Join(dir, "kotlinmod.jar"), "kotlinlang", "[1,)")

	app, stdout, stderr := newTestApp(t)
	if err := runCommand(t, app, "discover", dir, "--no-scan"); err != nil {
		t.Fatalf("discover returned error: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"goodmod.jar", "goodmod", "javafml 4.1.0", "language-resolved"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "kotlinmod.jar") {
		t.Errorf("dropped archive listed:\n%s", out)
	}
	if !strings.Contains(stderr.String(), "kotlinmod.jar") || !strings.Contains(stderr.String(), "kotlinlang") {
		t.Errorf("stderr missing diagnostic:\n%s", stderr.String())
	}
}

func TestDiscoverCommand_Strict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeModJar(t, filepath.Join(dir, "kotlinmod.jar"), "kotlinlang", "[1,)")

	app, _, _ := newTestApp(t)
	err := runCommand(t, app, "discover", dir, "--strict")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("discover --strict error = %v, want ExitError code 1", err)
	}
}

func TestDiscoverCommand_Explain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeModJar(t, filepath.Join(dir, "kotlinmod.jar"), "kotlinlang", "[1,)")
	writeModJar(t, filepath.Join(dir, "other.jar"), "kotlinlang", "[1,)")

	app, stdout, _ := newTestApp(t)
	if err := runCommand(t, app, "discover", dir, "--explain"); err != nil {
		t.Fatalf("discover returned error: %v", err)
	}

	if n := strings.Count(stdout.String(), "language_dirs"); n == 0 {
		t.Errorf("explanation not rendered:\n%s", stdout.String())
	}
}

func TestDiscoverCommand_InvalidSide(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)
	if err := runCommand(t, app, "discover", t.TempDir(), "--side", "both"); err == nil {
		t.Error("discover --side both should fail")
	}
}

func TestLanguagesCommand(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(t)
	if err := runCommand(t, app, "languages", t.TempDir()); err != nil {
		t.Fatalf("languages returned error: %v", err)
	}
	if !strings.Contains(stdout.String(), "javafml") || !strings.Contains(stdout.String(), "built-in") {
		t.Errorf("stdout = %s", stdout.String())
	}
}
