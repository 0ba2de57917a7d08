// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.astrophena.name/base/cli"
	"go.astrophena.name/base/logger"
	"go.astrophena.name/base/request"
	"go.astrophena.name/minimal/internal/devtools"
	"go.astrophena.name/minimal/internal/site"

	"github.com/dustin/go-humanize"
)

func main() { cli.Main(cli.AppFunc(run)) }

type tokenResponse struct {
	Value string `json:"value"`
}

func run(ctx context.Context) error {
	devtools.EnsureRoot()

	env := cli.GetEnv(ctx)
	if len(env.Args) > 2 {
		return fmt.Errorf("%w: want deployment URL and output directory", cli.ErrInvalidArgs)
	}

	e, err := devtools.Env()
	if err != nil {
		return err
	}
	deployURL := e.DeployURL
	if len(env.Args) > 0 {
		deployURL = env.Args[0]
	}
	if deployURL == "" {
		return fmt.Errorf("%w: no deployment URL (pass it or set MINIMAL_DEPLOY_URL)", cli.ErrInvalidArgs)
	}
	var dir string
	if len(env.Args) > 1 {
		dir = env.Args[1]
	}

	c, err := devtools.SiteConfig(dir, true)
	if err != nil {
		return err
	}
	if err := site.Build(ctx, c); err != nil {
		return err
	}

	archive, err := archiveDir(c.Dst)
	if err != nil {
		return err
	}
	logger.Info(ctx, "created site archive", slog.String("size", humanize.Bytes(uint64(len(archive)))))

	token, err := oidcToken(ctx, env.Getenv, deployURL)
	if err != nil {
		return err
	}
	if err := upload(ctx, deployURL, token, archive); err != nil {
		return err
	}
	logger.Info(ctx, "deployed", slog.String("url", deployURL))
	return nil
}

// oidcToken requests an OIDC token for the host of deployURL when running
// within a GitHub Actions workflow. Outside of it, the token is empty.
func oidcToken(ctx context.Context, getenv func(string) string, deployURL string) (string, error) {
	requestURL := getenv("ACTIONS_ID_TOKEN_REQUEST_URL")
	requestToken := getenv("ACTIONS_ID_TOKEN_REQUEST_TOKEN")
	if requestURL == "" || requestToken == "" {
		return "", nil
	}

	u, err := url.Parse(deployURL)
	if err != nil {
		return "", err
	}

	tokenResp, err := request.Make[tokenResponse](ctx, request.Params{
		Method: http.MethodGet,
		URL:    requestURL + "&audience=" + url.QueryEscape(u.Hostname()),
		Headers: map[string]string{
			"Authorization": "Bearer " + requestToken,
			"User-Agent":    "actions/oidc-client",
		},
	})
	if err != nil {
		return "", err
	}
	return tokenResp.Value, nil
}

// archiveDir packs the regular files of dir into a gzipped tarball with
// slash-separated paths relative to dir.
func archiveDir(dir string) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := tw.WriteHeader(&tar.Header{
			Name:     filepath.ToSlash(rel),
			Mode:     0o644,
			Size:     int64(len(b)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			return err
		}
		_, err = tw.Write(b)
		return err
	}); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// upload sends the archive to deployURL as a multipart form.
func upload(ctx context.Context, deployURL, token string, archive []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("archive", "site.tar.gz")
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, bytes.NewReader(archive)); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deployURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := request.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("wanted 200, got %d: %s", res.StatusCode, b)
	}
	return nil
}
