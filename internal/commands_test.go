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

package cli

import (
	"testing"

	"github.com/urfave/cli/v3"
)

func TestRootHasServeCommand(t *testing.T) {
	root := Root("test")
	if root.Name != "metabase-mcp" {
		t.Errorf("Name = %q, want metabase-mcp", root.Name)
	}

	var found bool
	for _, cmd := range root.Commands {
		if cmd.Name == "serve" {
			found = true
		}
	}
	if !found {
		t.Fatal("root command has no serve subcommand")
	}
}

func TestServeCommandFlagDefaults(t *testing.T) {
	serve := serveCommand()

	defaults := map[string]string{
		"transport": "stdio",
		"port":      "8080",
		"log-level": "info",
	}
	for _, flag := range serve.Flags {
		sf, ok := flag.(*cli.StringFlag)
		if !ok {
			continue
		}
		want, checked := defaults[sf.Name]
		if !checked {
			continue
		}
		if sf.Value != want {
			t.Errorf("flag %s default = %q, want %q", sf.Name, sf.Value, want)
		}
		delete(defaults, sf.Name)
	}
	if len(defaults) != 0 {
		t.Errorf("flags not found: %v", defaults)
	}
}

func TestConfigureLogging(t *testing.T) {
	if err := configureLogging("debug"); err != nil {
		t.Errorf("configureLogging(debug) = %v", err)
	}
	if err := configureLogging("nonsense"); err == nil {
		t.Error("configureLogging(nonsense) = nil, want error")
	}
}
