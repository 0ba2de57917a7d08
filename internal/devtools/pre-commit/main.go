// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Pre-commit checks the module and the site before a commit.
//
// It runs gofmt, staticcheck, tests and go mod tidy, adds missing copyright
// headers and builds the site in a production mode into a temporary
// directory.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"go.astrophena.name/base/cli"
	"go.astrophena.name/base/logger"
	"go.astrophena.name/minimal/internal/devtools"
	"go.astrophena.name/minimal/internal/site"
)

func main() { cli.Main(cli.AppFunc(check)) }

// goFiles lists Go files of the module packages; gofmt would descend into
// directories the go command ignores.
const goFiles = `{{$d := .Dir}}{{range .GoFiles}}{{$d}}/{{.}} {{end}}{{range .TestGoFiles}}{{$d}}/{{.}} {{end}}`

func check(ctx context.Context) error {
	devtools.EnsureRoot()

	isCI := cli.GetEnv(ctx).Getenv("CI") == "true"

	var w bytes.Buffer

	if err := run(ctx, &w, "go", "list", "-f", goFiles, "./..."); err != nil {
		return err
	}
	if err := run(ctx, &w, "gofmt", append([]string{"-d"}, strings.Fields(w.String())...)...); err != nil {
		return err
	}
	if diff := w.String(); diff != "" {
		return fmt.Errorf("run gofmt on these files:\n\t%v", diff)
	}

	if err := run(ctx, &w, "go", "tool", "staticcheck", "./..."); err != nil {
		return err
	}

	test := []string{"test", "./..."}
	if isCI {
		test = []string{"test", "-race", "./..."}
	}
	if err := run(ctx, &w, "go", test...); err != nil {
		return err
	}

	if err := run(ctx, &w, "go", "mod", "tidy", "--diff"); err != nil {
		return err
	}

	if err := run(ctx, &w, "go", "tool", "addcopyright"); err != nil {
		return err
	}
	if isCI {
		if err := run(ctx, &w, "git", "diff", "--exit-code"); err != nil {
			return err
		}
	}

	return buildSite(ctx)
}

// buildSite checks that the site builds in a production mode.
func buildSite(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "minimal-pre-commit-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	c, err := devtools.SiteConfig(dir, true)
	if err != nil {
		return err
	}
	if err := site.Build(ctx, c); err != nil {
		return err
	}
	logger.Info(ctx, "all checks passed", slog.String("site", c.Manifest.Name))
	return nil
}

func run(ctx context.Context, buf *bytes.Buffer, cmd string, args ...string) error {
	buf.Reset()
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdout = buf
	c.Stderr = buf
	if err := c.Run(); err != nil {
		return fmt.Errorf("%s failed: %w:\n%v", cmd, err, buf.String())
	}
	return nil
}
