// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package env

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.astrophena.name/base/testutil"
)

// unsetenv clears a variable for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "") // restores the previous value on cleanup
	os.Unsetenv(key)
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"MINIMAL_ENV", "MINIMAL_LISTEN", "MINIMAL_DEPLOY_URL"} {
		unsetenv(t, k)
	}

	c, err := Load(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, c, &Config{Env: Dev, Listen: "localhost:5000"})
	if c.Env.Prod() {
		t.Error("default environment is production")
	}
}

func TestLoadDotenv(t *testing.T) {
	unsetenv(t, "MINIMAL_ENV")
	unsetenv(t, "MINIMAL_DEPLOY_URL")
	t.Setenv("MINIMAL_LISTEN", "localhost:8080")

	dotenv := filepath.Join(t.TempDir(), ".env")
	const content = "MINIMAL_ENV=production\nMINIMAL_LISTEN=localhost:3000\nMINIMAL_DEPLOY_URL=https://example.com/deploy\n"
	if err := os.WriteFile(dotenv, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dotenv)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, c, &Config{
		Env: Prod,
		// Set in the process environment, so it wins.
		Listen:    "localhost:8080",
		DeployURL: "https://example.com/deploy",
	})
	if !c.Env.Prod() {
		t.Error("production environment isn't reported as such")
	}
}

func TestLoadUnknownEnv(t *testing.T) {
	t.Setenv("MINIMAL_ENV", "staging")
	if _, err := Load(""); !errors.Is(err, ErrUnknownEnv) {
		t.Fatalf("want ErrUnknownEnv, got %v", err)
	}
}

func TestLoadBrokenDotenv(t *testing.T) {
	dir := t.TempDir()
	// A directory can't be read as a file.
	if _, err := Load(dir); err == nil {
		t.Fatal("want an error, got nil")
	}
}
