// © 2022 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"

	"go.astrophena.name/base/cli"
	"go.astrophena.name/minimal/internal/devtools"
	"go.astrophena.name/minimal/internal/site"
)

func main() { cli.Main(new(app)) }

type app struct {
	listen string
	static bool
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.listen, "listen", "", "Listen on `host:port` (default from MINIMAL_LISTEN).")
	fs.BoolVar(&a.static, "static", false, "Build the site once and serve the output without watching.")
}

func (a *app) Run(ctx context.Context) error {
	devtools.EnsureRoot()

	args := cli.GetEnv(ctx).Args
	if len(args) > 1 {
		return fmt.Errorf("%w: want at most one output directory", cli.ErrInvalidArgs)
	}
	var dir string
	if len(args) == 1 {
		dir = args[0]
	}

	e, err := devtools.Env()
	if err != nil {
		return err
	}
	listen := a.listen
	if listen == "" {
		listen = e.Listen
	}

	if a.static {
		c, err := devtools.SiteConfig(dir, e.Env.Prod())
		if err != nil {
			return err
		}
		return site.Preview(ctx, c, listen)
	}

	c, err := devtools.SiteConfig(dir, false)
	if err != nil {
		return err
	}
	return site.Serve(ctx, c, listen)
}
