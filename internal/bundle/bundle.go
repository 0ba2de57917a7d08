// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bundle bundles JavaScript and CSS of the site with esbuild.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.astrophena.name/base/logger"

	"github.com/dustin/go-humanize"
	"github.com/evanw/esbuild/pkg/api"
)

// Targets maps supported language target names to esbuild targets.
var Targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Options configure a Bundler.
type Options struct {
	// Src is the directory the entry point and its imports are resolved from.
	Src string
	// Entry is the entry point, relative to Src.
	Entry string
	// Outdir is the directory output paths are relative to. Nothing is written
	// there by the Bundler itself.
	Outdir string
	// Prod enables minification and external source maps.
	Prod bool
	// Target is the language target, one of Targets. Empty means es2017.
	Target string
	// Define contains additional global identifier replacements.
	Define map[string]string
}

// Result is the result of a successful build.
type Result struct {
	// Files maps slash-separated output paths with a leading slash, relative
	// to the output directory, to their contents.
	Files map[string][]byte
	// Warnings contains formatted bundler warnings.
	Warnings []string
}

// Paths returns sorted output paths.
func (r *Result) Paths() []string {
	return slices.Sorted(maps.Keys(r.Files))
}

// Error is returned when esbuild reports errors.
type Error struct {
	// Messages contains formatted bundler errors.
	Messages []string
}

func (e *Error) Error() string {
	return "bundler failed:\n" + strings.Join(e.Messages, "\n")
}

// Bundler holds an incremental esbuild context.
type Bundler struct {
	mu     sync.Mutex
	bc     api.BuildContext
	outdir string
}

// New creates a Bundler. The caller must call Close when done.
func New(o Options) (*Bundler, error) {
	if o.Entry == "" {
		return nil, errors.New("bundle: entry point is not set")
	}

	src, err := filepath.Abs(o.Src)
	if err != nil {
		return nil, err
	}
	outdir, err := filepath.Abs(o.Outdir)
	if err != nil {
		return nil, err
	}

	if o.Target == "" {
		o.Target = "es2017"
	}
	target, ok := Targets[o.Target]
	if !ok {
		return nil, fmt.Errorf("bundle: unknown target %q", o.Target)
	}

	mode := "development"
	if o.Prod {
		mode = "production"
	}
	define := map[string]string{
		"process.env.NODE_ENV": fmt.Sprintf("%q", mode),
	}
	maps.Copy(define, o.Define)

	opts := api.BuildOptions{
		AbsWorkingDir: src,
		EntryPoints:   []string{filepath.Join(src, filepath.FromSlash(o.Entry))},
		EntryNames:    "index",
		AssetNames:    "public/fonts/[name]",
		Outdir:        outdir,
		Bundle:        true,
		Write:         false,
		Platform:      api.PlatformBrowser,
		Format:        api.FormatIIFE,
		Target:        target,
		JSX:           api.JSXTransform,
		Define:        define,
		LogLevel:      api.LogLevelSilent,
		Loader: map[string]api.Loader{
			".js":    api.LoaderJSX,
			".es":    api.LoaderJSX,
			".jsx":   api.LoaderJSX,
			".css":   api.LoaderCSS,
			".eot":   api.LoaderFile,
			".svg":   api.LoaderFile,
			".ttf":   api.LoaderFile,
			".woff":  api.LoaderFile,
			".woff2": api.LoaderFile,
		},
		Sourcemap: api.SourceMapInline,
	}
	if o.Prod {
		opts.Sourcemap = api.SourceMapExternal
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	bc, cerr := api.Context(opts)
	if cerr != nil {
		return nil, &Error{Messages: format(cerr.Errors, api.ErrorMessage)}
	}
	return &Bundler{bc: bc, outdir: outdir}, nil
}

// Build runs an incremental build.
func (b *Bundler) Build(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	res := b.bc.Rebuild()
	b.mu.Unlock()

	warnings := format(res.Warnings, api.WarningMessage)
	for _, w := range warnings {
		logger.Info(ctx, "bundler warning", slog.String("message", w))
	}
	if len(res.Errors) > 0 {
		return nil, &Error{Messages: format(res.Errors, api.ErrorMessage)}
	}

	r := &Result{
		Files:    make(map[string][]byte, len(res.OutputFiles)),
		Warnings: warnings,
	}
	for _, f := range res.OutputFiles {
		rel, err := filepath.Rel(b.outdir, f.Path)
		if err != nil {
			return nil, err
		}
		r.Files["/"+filepath.ToSlash(rel)] = f.Contents
	}
	for _, p := range r.Paths() {
		logger.Info(ctx, "bundled", slog.String("path", p), slog.String("size", humanize.Bytes(uint64(len(r.Files[p])))))
	}
	return r, nil
}

// Close disposes the esbuild context.
func (b *Bundler) Close() {
	b.bc.Dispose()
}

func format(msgs []api.Message, kind api.MessageKind) []string {
	if len(msgs) == 0 {
		return nil
	}
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: kind})
	for i, m := range formatted {
		formatted[i] = strings.TrimSpace(m)
	}
	return formatted
}
