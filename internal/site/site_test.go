// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.astrophena.name/base/testutil"
	"go.astrophena.name/base/txtar"
	"go.astrophena.name/minimal/internal/bundle"
	"go.astrophena.name/minimal/internal/manifest"
)

// testConfig extracts the test site and returns a configuration for it.
func testConfig(t *testing.T) *Config {
	t.Helper()

	ar, err := txtar.ParseFile(filepath.Join("testdata", "site.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	testutil.ExtractTxtar(t, ar, dir)

	mpath := filepath.Join(dir, "site.yaml")
	m, err := manifest.Load(mpath)
	if err != nil {
		t.Fatal(err)
	}
	return &Config{
		Manifest:     m,
		ManifestPath: mpath,
		Src:          filepath.Join(dir, "src"),
		Dst:          filepath.Join(t.TempDir(), "dist"),
	}
}

func readFile(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBuild(t *testing.T) {
	c := testConfig(t)

	// Leftovers of a previous build must go away.
	if err := writeFile(filepath.Join(c.Dst, "stale.txt"), []byte("stale")); err != nil {
		t.Fatal(err)
	}

	if err := Build(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"index.html", "404.html", "index.js", "index.css", "public/robots.txt", "public/extra.css"} {
		if _, err := os.Stat(filepath.Join(c.Dst, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(c.Dst, "stale.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stale.txt wasn't removed: %v", err)
	}

	index := readFile(t, filepath.Join(c.Dst, "index.html"))
	testutil.AssertEqual(t, string(readFile(t, filepath.Join(c.Dst, "404.html"))), string(index))
	for _, want := range []string{"<title>minimal</title>", "<h1", "Hello, world!", `href="/index.css"`, `src="/index.js"`} {
		if !bytes.Contains(index, []byte(want)) {
			t.Errorf("index.html doesn't contain %q:\n%s", want, index)
		}
	}
	if bytes.Contains(index, []byte("Drafts go here.")) {
		t.Errorf("index.html contains a stripped comment:\n%s", index)
	}
	if bytes.Contains(index, []byte("WebSocket")) {
		t.Errorf("index.html contains the live reload script:\n%s", index)
	}

	// Public files are copied verbatim in development mode.
	testutil.AssertEqual(t, string(readFile(t, filepath.Join(c.Dst, "public", "extra.css"))), "body {\n  color: red;\n}\n")
}

func TestBuildProd(t *testing.T) {
	c := testConfig(t)
	c.Prod = true

	if err := Build(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, string(readFile(t, filepath.Join(c.Dst, "public", "extra.css"))), "body{color:red}")
	testutil.AssertEqual(t, string(readFile(t, filepath.Join(c.Dst, "public", "robots.txt"))), "User-agent: *\n")
	if _, err := os.Stat(filepath.Join(c.Dst, "index.js.map")); err != nil {
		t.Errorf("missing source map: %v", err)
	}
	if bytes.Contains(readFile(t, filepath.Join(c.Dst, "index.js")), []byte("sourceMappingURL=data:")) {
		t.Error("index.js contains an inline source map in production")
	}
}

func TestBuildNoPublic(t *testing.T) {
	c := testConfig(t)
	if err := os.RemoveAll(filepath.Join(c.Src, "public")); err != nil {
		t.Fatal(err)
	}
	if err := Build(context.Background(), c); err != nil {
		t.Fatal(err)
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("no manifest", func(t *testing.T) {
		err := Build(context.Background(), &Config{Src: t.TempDir(), Dst: t.TempDir()})
		if !errors.Is(err, errNoManifest) {
			t.Fatalf("want errNoManifest, got %v", err)
		}
	})

	t.Run("bundler error", func(t *testing.T) {
		c := testConfig(t)
		if err := os.WriteFile(filepath.Join(c.Src, "es", "index.js"), []byte("const = ;\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		err := Build(context.Background(), c)
		var berr *bundle.Error
		if !errors.As(err, &berr) {
			t.Fatalf("want *bundle.Error, got %v", err)
		}
	})

	t.Run("missing index", func(t *testing.T) {
		c := testConfig(t)
		if err := os.Remove(filepath.Join(c.Src, "index.md")); err != nil {
			t.Fatal(err)
		}
		if err := Build(context.Background(), c); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("want not exist error, got %v", err)
		}
	})
}

func TestIsIgnorable(t *testing.T) {
	cases := map[string]bool{
		"public/robots.txt":  false,
		"public/robots.txt~": true,
		"public/.gitignore":  true,
		"public/.DS_Store":   true,
		"public/gitignore":   false,
	}
	for path, want := range cases {
		if got := isIgnorable(path); got != want {
			t.Errorf("isIgnorable(%q): want %v, got %v", path, want, got)
		}
	}
}

func TestMinFile(t *testing.T) {
	m := newMin()
	cases := map[string]struct {
		name, in, want string
	}{
		"css":       {"a.css", "body {\n  color: red;\n}\n", "body{color:red}"},
		"json":      {"a.json", "{\n  \"a\": 1\n}\n", `{"a":1}`},
		"unchanged": {"a.txt", "  keep  me  ", "  keep  me  "},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := m.file(tc.name, []byte(tc.in))
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, strings.TrimSpace(string(got)), strings.TrimSpace(tc.want))
		})
	}
}
