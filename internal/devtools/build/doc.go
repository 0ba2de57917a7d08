// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Build builds the site.

# Usage

	$ go tool build [flags] [dir]

Builds the site described by site.yaml from the "src" directory into the
specified directory dir. If dir is not provided, it defaults to "dist".
The directory is emptied before each build.

In production mode, enabled by the -prod flag or MINIMAL_ENV=production,
scripts and stylesheets are minified, source maps are written next to them
and public files are minified where possible.

# Environment Variables

Variables are also read from the .env file at the site root, if it exists.

  - MINIMAL_ENV: "development" (default) or "production".
*/
package main

import (
	_ "embed"

	"go.astrophena.name/base/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
