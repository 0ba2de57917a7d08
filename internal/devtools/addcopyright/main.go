// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Addcopyright adds copyright header to each Go, script and stylesheet file.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.astrophena.name/minimal/internal/devtools"
)

const slashTemplate = `// © %d Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

`

const blockTemplate = `/*
 * © %d Ilya Mateyko. All rights reserved.
 * Use of this source code is governed by the ISC
 * license that can be found in the LICENSE.md file.
 */

`

var templates = map[string]string{
	".go":  slashTemplate,
	".js":  slashTemplate,
	".jsx": slashTemplate,
	".es":  slashTemplate,
	".css": blockTemplate,
}

var headers = map[string]string{
	".go":  `// ©`,
	".js":  `// ©`,
	".jsx": `// ©`,
	".es":  `// ©`,
	".css": "/*\n * © ",
}

var exclusions = []string{
	"LICENSE.md",
}

// Directories that hold generated, vendored or fixture files.
var skipDirs = []string{
	".git",
	"_examples",
	devtools.DstDir,
	"node_modules",
	"testdata",
}

func isExcluded(path string) bool {
	for _, ex := range exclusions {
		if strings.HasSuffix(path, ex) {
			return true
		}
	}
	return false
}

func main() {
	devtools.EnsureRoot()

	if err := addHeaders("."); err != nil {
		log.Fatal(err)
	}
}

func addHeaders(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && slices.Contains(skipDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcluded(path) {
			return nil
		}
		ext := filepath.Ext(path)
		tmpl, ok := templates[ext]
		if !ok {
			return nil
		}
		header, ok := headers[ext]
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if bytes.HasPrefix(content, []byte(header)) {
			return nil // Already has a copyright header
		}

		year := info.ModTime().Year()
		hdr := fmt.Sprintf(tmpl, year)

		var buf bytes.Buffer
		buf.WriteString(hdr)
		buf.Write(content)

		return os.WriteFile(path, buf.Bytes(), 0o644)
	})
}
