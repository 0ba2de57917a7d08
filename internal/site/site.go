// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package site builds and serves a minimal one-page site.

# Directory Structure

	site.yaml  The site manifest, see the manifest package.
	src        Sources of the site:
	  es       JavaScript entry point (es/index.js by default). CSS
	           imported from it is bundled into index.css.
	  index.md The page content, rendered into index.html and 404.html.
	  public   Files copied verbatim to the generated site.
	dist       This is where the generated site will be placed by default.

# Serving

[Serve] runs a development server that keeps builds in memory, rebuilds on
changes and reloads open pages. [Preview] builds the site to disk and serves
the result as is.
*/
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.astrophena.name/base/logger"
	"go.astrophena.name/minimal/internal/bundle"
	"go.astrophena.name/minimal/internal/document"
	"go.astrophena.name/minimal/internal/manifest"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	mjson "github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"golang.org/x/sync/errgroup"
)

var errNoManifest = errors.New("site manifest is not set")

// Config represents a build configuration.
type Config struct {
	// Manifest describes the site. Required.
	Manifest *manifest.Manifest
	// ManifestPath is the file Manifest was loaded from. If set, Serve watches
	// it and reloads the manifest on changes.
	ManifestPath string
	// Src is the directory where to read files from. If empty, uses the src
	// directory.
	Src string
	// Dst is the directory where to write files. If empty, uses the dist
	// directory.
	Dst string
	// Prod determines if the site should be built in a production mode. This
	// means that scripts, styles and public files are minified and source maps
	// are not inlined.
	Prod bool
}

func (c *Config) setDefaults() {
	if c.Src == "" {
		c.Src = filepath.Join(".", "src")
	}
	if c.Dst == "" {
		c.Dst = filepath.Join(".", "dist")
	}
}

func (c *Config) bundleOptions() bundle.Options {
	return bundle.Options{
		Src:    c.Src,
		Entry:  c.Manifest.Entry,
		Outdir: c.Dst,
		Prod:   c.Prod,
		Target: c.Manifest.Target,
		Define: c.Manifest.Define,
	}
}

// document renders the index document. If live is true, the document reloads
// itself after each rebuild.
func (c *Config) document(live bool) ([]byte, error) {
	m := c.Manifest
	index := filepath.Join(c.Src, filepath.FromSlash(m.Index))
	content, err := os.ReadFile(index)
	if err != nil {
		return nil, err
	}
	doc, err := document.Render(document.Props{
		Content:     content,
		Href:        "/index.css",
		Src:         "/index.js",
		Icon:        m.Icon,
		Name:        m.Name,
		Description: m.Description,
		Author:      m.Author,
		License:     m.License,
		Live:        live,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", index, err)
	}
	return doc, nil
}

// Build builds a site based on the provided [Config].
func Build(ctx context.Context, c *Config) error {
	c.setDefaults()
	if c.Manifest == nil {
		return errNoManifest
	}

	b, err := bundle.New(c.bundleOptions())
	if err != nil {
		return err
	}
	defer b.Close()

	// Clean up after previous build.
	if err := os.RemoveAll(c.Dst); err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dst, 0o755); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "running bundler build", slog.String("entry", c.Manifest.Entry))
		res, err := b.Build(gctx)
		if err != nil {
			return err
		}
		for p, data := range res.Files {
			if err := writeFile(filepath.Join(c.Dst, filepath.FromSlash(p)), data); err != nil {
				return err
			}
		}
		logger.Info(gctx, "bundler build success", slog.Int("files", len(res.Files)))
		return nil
	})

	g.Go(func() error {
		logger.Info(gctx, "transferring public contents", slog.String("dir", c.Manifest.Public))
		if err := c.copyPublic(); err != nil {
			return err
		}
		logger.Info(gctx, "transfer of public contents complete")
		return nil
	})

	g.Go(func() error {
		logger.Info(gctx, "generating index document", slog.String("file", c.Manifest.Index))
		doc, err := c.document(false)
		if err != nil {
			return err
		}
		for _, name := range []string{"index.html", "404.html"} {
			if err := writeFile(filepath.Join(c.Dst, name), doc); err != nil {
				return err
			}
		}
		logger.Info(gctx, "index document generated")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info(ctx, "building of all assets complete", slog.String("dst", c.Dst))
	return nil
}

func (c *Config) copyPublic() error {
	src := filepath.Join(c.Src, filepath.FromSlash(c.Manifest.Public))
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	var m *min
	if c.Prod {
		m = newMin()
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || isIgnorable(path) {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		buf, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if m != nil {
			buf, err = m.file(path, buf)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}

		return writeFile(filepath.Join(c.Dst, filepath.FromSlash(c.Manifest.Public), rel), buf)
	})
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}

func isIgnorable(path string) bool {
	base := filepath.Base(path)

	// Ignore files that look like Vim backups.
	if strings.HasSuffix(base, "~") {
		return true
	}

	return base == ".gitignore" || base == ".DS_Store"
}

type min struct {
	m *minify.M
}

func newMin() *min {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("application/json", mjson.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return &min{m: m}
}

// file minifies b if the type of the named file is supported, otherwise b is
// returned unchanged.
func (m *min) file(name string, b []byte) ([]byte, error) {
	var mediaType string
	switch filepath.Ext(name) {
	case ".css":
		mediaType = "text/css"
	case ".js":
		mediaType = "application/javascript"
	case ".json", ".webmanifest":
		mediaType = "application/json"
	case ".svg":
		mediaType = "image/svg+xml"
	default:
		return b, nil
	}
	return m.m.Bytes(mediaType, b)
}
