// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.astrophena.name/base/cli"
	"go.astrophena.name/base/logger"
	"go.astrophena.name/minimal/internal/devtools"
)

func main() {
	cli.Main(new(app))
}

type app struct {
	size   int
	circle bool
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.IntVar(&a.size, "size", 192, "Icon size in pixels.")
	fs.BoolVar(&a.circle, "circle", true, "Apply a circular mask.")
}

func (a *app) Run(ctx context.Context) error {
	devtools.EnsureRoot()

	if _, err := exec.LookPath("magick"); err != nil {
		return errors.New("ImageMagick (magick command) not found")
	}

	args := cli.GetEnv(ctx).Args
	if len(args) != 1 {
		return fmt.Errorf("%w: want an input image file", cli.ErrInvalidArgs)
	}
	if a.size <= 0 {
		return fmt.Errorf("%w: size must be positive", cli.ErrInvalidArgs)
	}

	absInputFile, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to get absolute path for input file: %w", err)
	}
	if _, err := os.Stat(absInputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file %s not found", absInputFile)
	}

	outputDir := filepath.Join(devtools.SrcDir, "public")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	outputFile := filepath.Join(outputDir, "favicon.png")

	cmd := exec.CommandContext(ctx, "magick", magickArgs(absInputFile, outputFile, a.size, a.circle)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to generate icon: %w", err)
	}

	logger.Info(ctx, "generated icon", slog.String("path", outputFile), slog.Int("size", a.size))
	return nil
}

// magickArgs returns ImageMagick arguments that crop input to a square of
// the given size and optionally mask it with a circle.
func magickArgs(input, output string, size int, circle bool) []string {
	sizeStr := strconv.Itoa(size)
	args := []string{
		input,
		"-resize", sizeStr + "x" + sizeStr + "^",
		"-gravity", "North",
		"-extent", sizeStr + "x" + sizeStr,
	}
	if circle {
		center := size / 2
		drawCircleArg := fmt.Sprintf("circle %d,%d %d,%d", center, center, center, 0)
		args = append(args,
			"(", "+clone", "-alpha", "transparent", "-fill", "white", "-draw", drawCircleArg, ")",
			"-compose", "CopyOpacity",
			"-composite",
		)
	}
	return append(args, output)
}
