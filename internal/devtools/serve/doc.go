// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Serve serves the site for local development.

# Usage:

	$ go tool serve [flags] [dir]

Serve performs an initial build in memory and serves it. Requests made
while a build is in progress wait for it to finish. It then watches the
"src" directory and site.yaml for changes, rebuilds the site and reloads
open pages. Files that aren't produced by the build are served from "src".

With -static, Serve builds the site into dir (default "dist") once and
serves the output, as it would be served in production.

If the port is busy, Serve picks a free one and logs it.

# Environment Variables

Variables are also read from the .env file at the site root, if it exists.

  - MINIMAL_LISTEN: the default for -listen ("localhost:5000").
  - MINIMAL_ENV: build mode for -static, "development" (default) or
    "production".
*/
package main

import (
	_ "embed"

	"go.astrophena.name/base/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
