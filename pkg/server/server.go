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

// Package server wires the Metabase client and tool layer into an MCP
// server and runs it over the configured transport.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/dashbridge/metabase-mcp/pkg/client"
	"github.com/dashbridge/metabase-mcp/pkg/config"
	"github.com/dashbridge/metabase-mcp/pkg/tools"
)

// Name and Version identify the server in the MCP handshake.
const (
	Name    = "metabase-mcp"
	Version = "0.1.0"
)

// MCPServer wraps the mcp-go server together with its configuration.
type MCPServer struct {
	server *server.MCPServer
	cfg    *config.Config
	log    *logrus.Entry
}

// New builds the MCP server with every Metabase tool registered.
func New(cfg *config.Config) *MCPServer {
	mcpServer := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
	)

	toolset := tools.NewToolset(client.New(cfg), cfg)
	toolset.Register(mcpServer)

	return &MCPServer{
		server: mcpServer,
		cfg:    cfg,
		log:    logrus.WithField("component", "server"),
	}
}

// Start runs the server on the configured transport. It blocks until
// the transport shuts down.
func (s *MCPServer) Start() error {
	switch s.cfg.Transport {
	case config.TransportTypeHTTP:
		s.log.WithField("port", s.cfg.Port).Info("starting HTTP MCP server")
		streamableServer := server.NewStreamableHTTPServer(s.server)
		return streamableServer.Start(fmt.Sprintf(":%s", s.cfg.Port))
	case config.TransportTypeStdio:
		s.log.Info("starting stdio MCP server")
		return server.ServeStdio(s.server)
	default:
		return fmt.Errorf("unsupported transport type: %s", s.cfg.Transport)
	}
}

// GetServer returns the underlying mcp-go server.
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.server
}
