// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package devtools contains common functionality for development tools.
package devtools

import (
	"os"
	"path/filepath"

	"go.astrophena.name/base/unwrap"
	"go.astrophena.name/minimal/internal/env"
	"go.astrophena.name/minimal/internal/manifest"
	"go.astrophena.name/minimal/internal/site"
)

// Files and directories of a site, relative to its root.
const (
	ManifestFile = "site.yaml"
	DotenvFile   = ".env"
	SrcDir       = "src"
	DstDir       = "dist"
)

// EnsureRoot checks that the current working directory is at the site root
// and panics if it doesn't.
func EnsureRoot() {
	wd := unwrap.Value(os.Getwd())
	if _, err := os.Stat(filepath.Join(wd, ManifestFile)); os.IsNotExist(err) {
		panic("Are you at site root? No " + ManifestFile + " here.")
	} else if err != nil {
		panic(err)
	}
}

// Env loads the environment configuration, reading the .env file of the
// site if there is one.
func Env() (*env.Config, error) {
	return env.Load(DotenvFile)
}

// SiteConfig loads the manifest and returns the site configuration that
// builds into dst. If dst is empty, it defaults to DstDir.
func SiteConfig(dst string, prod bool) (*site.Config, error) {
	m, err := manifest.Load(ManifestFile)
	if err != nil {
		return nil, err
	}
	if dst == "" {
		dst = DstDir
	}
	return &site.Config{
		Manifest:     m,
		ManifestPath: ManifestFile,
		Src:          SrcDir,
		Dst:          dst,
		Prod:         prod,
	}, nil
}
