// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Deploy builds the site in production mode and sends its archive to the
deployment server.

# Usage

	$ go tool deploy [url] [dir]

Arguments:

  - url: The deployment endpoint (e.g., "https://deploy.example.com/site").
    Defaults to MINIMAL_DEPLOY_URL.
  - dir: The output directory of the build (default "dist").

The output directory is packed into a gzipped tarball and uploaded as the
"archive" field of a multipart form. The server is expected to reply with
200 OK.

# Environment Variables

Variables are also read from the .env file at the site root, if it exists.

  - MINIMAL_DEPLOY_URL: The default deployment endpoint.

When run within a GitHub Actions workflow, the upload is authenticated with
an OIDC token for the host of the deployment endpoint. The token is
requested using these variables set by the runner:

  - ACTIONS_ID_TOKEN_REQUEST_URL: The URL to request the OIDC token from.
  - ACTIONS_ID_TOKEN_REQUEST_TOKEN: The bearer token for authenticating the
    OIDC token request.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/base/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
