// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package manifest loads the site manifest.

The manifest lives in site.yaml at the project root:

	name: minimal
	description: A minimal one-page site.
	author: Ilya Mateyko
	license: ISC

	# Optional, defaults shown.
	entry: es/index.js
	index: index.md
	public: public
	icon: /public/favicon.png
	target: es2017
	define:
	  process.env.FEATURE: "true"

All paths except icon are relative to the source directory.
*/
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.astrophena.name/minimal/internal/bundle"

	"gopkg.in/yaml.v3"
)

// Possible errors, used in tests.
var (
	ErrMissingField  = errors.New("missing required manifest field")
	ErrUnknownTarget = errors.New("unknown bundler target")
)

// Manifest describes the site.
type Manifest struct {
	Name        string            `yaml:"name"`             // name: Site name, required.
	Description string            `yaml:"description"`      // description: Site description, required.
	Author      string            `yaml:"author"`           // author: Site author, required.
	License     string            `yaml:"license"`          // license: Content license, required.
	Entry       string            `yaml:"entry,omitempty"`  // entry: Bundler entry point, es/index.js by default.
	Index       string            `yaml:"index,omitempty"`  // index: Markdown document, index.md by default.
	Public      string            `yaml:"public,omitempty"` // public: Directory copied verbatim, public by default.
	Icon        string            `yaml:"icon,omitempty"`   // icon: Favicon URL, /public/favicon.png by default.
	Target      string            `yaml:"target,omitempty"` // target: Bundler language target, es2017 by default.
	Define      map[string]string `yaml:"define,omitempty"` // define: Additional bundler defines, optional.
}

// Load reads the manifest from path.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes the manifest from b, applies defaults and validates it.
func Parse(b []byte) (*Manifest, error) {
	m := new(Manifest)

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	m.setDefaults()
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) setDefaults() {
	if m.Entry == "" {
		m.Entry = "es/index.js"
	}
	if m.Index == "" {
		m.Index = "index.md"
	}
	if m.Public == "" {
		m.Public = "public"
	}
	if m.Icon == "" {
		m.Icon = "/public/favicon.png"
	}
	if m.Target == "" {
		m.Target = "es2017"
	}
}

func (m *Manifest) validate() error {
	for _, f := range []struct {
		name, val string
	}{
		{"name", m.Name},
		{"description", m.Description},
		{"author", m.Author},
		{"license", m.License},
	} {
		if f.val == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if _, ok := bundle.Targets[m.Target]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, m.Target)
	}
	return nil
}
