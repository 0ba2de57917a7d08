// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Favicon generates the site icon.

# Usage

	$ go tool favicon [flags] <input_image_file>

This tool crops the provided input image to a square, resizes it, applies
a circular mask and saves it as "src/public/favicon.png", which the site
manifest points to by default.

It requires ImageMagick (the "magick" command) to be installed and
available in the system's PATH.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/base/cli"
)

//go:embed doc.go
var doc []byte

func init() {
	cli.SetDocComment(doc)
}
