// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package env contains definitions for the environments in which the site
// can be built and served, and reads them from the process environment.
package env

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env is the environment in which the site is built.
type Env string

// Available environments.
const (
	Dev  = Env("development")
	Prod = Env("production")
)

// Prod reports whether e is the production environment.
func (e Env) Prod() bool { return e == Prod }

// ErrUnknownEnv is returned when MINIMAL_ENV holds an unknown environment.
var ErrUnknownEnv = errors.New("unknown environment")

// Config is the configuration read from the process environment.
type Config struct {
	Env       Env    `env:"MINIMAL_ENV"        envDefault:"development"`
	Listen    string `env:"MINIMAL_LISTEN"     envDefault:"localhost:5000"`
	DeployURL string `env:"MINIMAL_DEPLOY_URL"`
}

// Load reads the configuration from the process environment. If dotenv names
// an existing file, variables from it are loaded first; variables already
// set in the process environment take precedence.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if _, err := os.Stat(dotenv); err == nil {
			if err := godotenv.Load(dotenv); err != nil {
				return nil, fmt.Errorf("%s: %w", dotenv, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch c.Env {
	case Dev, Prod:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEnv, c.Env)
	}
	return &c, nil
}
