// Copyright 2025 Metabase MCP Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli defines the command line interface of the Metabase MCP
// server. Configuration comes from the environment first; flags
// override it.
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dashbridge/metabase-mcp/pkg/config"
	"github.com/dashbridge/metabase-mcp/pkg/server"
)

// Root builds the top-level CLI command.
func Root(version string) *cli.Command {
	return &cli.Command{
		Name:    "metabase-mcp",
		Usage:   "MCP server for the Metabase analytics platform.",
		Version: version,
		Commands: []*cli.Command{
			serveCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the MCP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "transport",
				Value: string(config.TransportTypeStdio),
				Usage: "Transport to serve on: stdio or http",
			},
			&cli.StringFlag{
				Name:  "port",
				Value: "8080",
				Usage: "Listen port, only used with --transport http",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Metabase base URL, overrides METABASE_URL",
			},
			&cli.IntFlag{
				Name:  "response-size-limit",
				Usage: "Maximum tool response size in characters, overrides RESPONSE_SIZE_LIMIT",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Log level: debug, info, warn or error",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			if err := configureLogging(cmd.String("log-level")); err != nil {
				return err
			}
			return server.New(cfg).Start()
		},
	}
}

// buildConfig merges environment configuration with flag overrides and
// validates the result.
func buildConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.FromEnv()
	cfg.Transport = config.TransportType(cmd.String("transport"))
	cfg.Port = cmd.String("port")
	if url := cmd.String("url"); url != "" {
		cfg.URL = url
	}
	if limit := cmd.Int("response-size-limit"); limit > 0 {
		cfg.ResponseSizeLimit = int(limit)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
