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
	prod bool
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.prod, "prod", false, "Build in a production mode (also enabled by MINIMAL_ENV=production).")
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
	c, err := devtools.SiteConfig(dir, a.prod || e.Env.Prod())
	if err != nil {
		return err
	}
	return site.Build(ctx, c)
}
