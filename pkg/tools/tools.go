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

// Package tools defines the MCP tools exposed by the server. Each tool
// wraps one or more Metabase API calls plus the filter configuration
// core in pkg/filters.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/dashbridge/metabase-mcp/pkg/client"
	"github.com/dashbridge/metabase-mcp/pkg/config"
)

// Toolset bundles the dependencies shared by all tool handlers.
type Toolset struct {
	client *client.Client
	cfg    *config.Config
	log    *logrus.Entry
}

// NewToolset creates a Toolset backed by the given client.
func NewToolset(c *client.Client, cfg *config.Config) *Toolset {
	return &Toolset{
		client: c,
		cfg:    cfg,
		log:    logrus.WithField("component", "tools"),
	}
}

// Register adds every tool to the MCP server.
func (t *Toolset) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Search Metabase for cards, dashboards, collections, databases and tables."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search term")),
		mcp.WithArray("models", mcp.Description("Restrict results to these model types, e.g. [\"card\", \"dashboard\"]"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
		mcp.WithNumber("page_size", mcp.Description("Results per page, default 20")),
	), t.handleSearch)

	s.AddTool(mcp.NewTool("list_databases",
		mcp.WithDescription("List the available databases with their IDs, names and engines."),
	), t.handleListDatabases)

	s.AddTool(mcp.NewTool("get_database_metadata",
		mcp.WithDescription("List a database's tables organized by schema, with table IDs for field filter bindings."),
		mcp.WithNumber("database_id", mcp.Required(), mcp.Description("Database ID")),
	), t.handleGetDatabaseMetadata)

	s.AddTool(mcp.NewTool("get_table_query_metadata",
		mcp.WithDescription("List a table's fields with their IDs and types. Use the field IDs to bind field filters (database_id, table_id, field_id)."),
		mcp.WithNumber("table_id", mcp.Required(), mcp.Description("Table ID")),
		mcp.WithBoolean("include_sensitive_fields", mcp.Description("Include sensitive fields, default false")),
		mcp.WithBoolean("include_hidden_fields", mcp.Description("Include hidden fields, default false")),
	), t.handleGetTableQueryMetadata)

	s.AddTool(mcp.NewTool("get_card",
		mcp.WithDescription("Fetch a card (question) including its query, template tags and parameters."),
		mcp.WithNumber("card_id", mcp.Required(), mcp.Description("Card ID")),
	), t.handleGetCard)

	s.AddTool(mcp.NewTool("create_card",
		mcp.WithDescription("Create a native SQL card. Interactive filters are described with simplified filter descriptors; the server expands them into template tags and parameters."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Card name")),
		mcp.WithNumber("database_id", mcp.Required(), mcp.Description("Target database ID")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Native SQL, with {{placeholder}} filter references")),
		mcp.WithString("description", mcp.Description("Card description")),
		mcp.WithNumber("collection_id", mcp.Description("Collection to save the card in")),
		mcp.WithString("display", mcp.Description("Visualization type, default table")),
		mcp.WithArray("filters", mcp.Description("Simplified filter descriptors"), mcp.Items(map[string]any{"type": "object"})),
	), t.handleCreateCard)

	s.AddTool(mcp.NewTool("update_card",
		mcp.WithDescription("Update a card's name, description, query or filters. Pass filter IDs from the existing card to keep dashboard mappings intact."),
		mcp.WithNumber("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("name", mcp.Description("New card name")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("query", mcp.Description("New native SQL")),
		mcp.WithArray("filters", mcp.Description("Replacement filter descriptors"), mcp.Items(map[string]any{"type": "object"})),
	), t.handleUpdateCard)

	s.AddTool(mcp.NewTool("get_dashboard",
		mcp.WithDescription("Fetch a dashboard including its parameters and cards."),
		mcp.WithNumber("dashboard_id", mcp.Required(), mcp.Description("Dashboard ID")),
	), t.handleGetDashboard)

	s.AddTool(mcp.NewTool("update_dashboard",
		mcp.WithDescription("Update a dashboard's filters and their mappings onto card parameters. Filters replace the dashboard's parameter list; mappings connect filters to cards by name and may be sent alone to remap the dashboard's existing filters."),
		mcp.WithNumber("dashboard_id", mcp.Required(), mcp.Description("Dashboard ID")),
		mcp.WithString("name", mcp.Description("New dashboard name")),
		mcp.WithArray("filters", mcp.Description("Dashboard filter descriptors"), mcp.Items(map[string]any{"type": "object"})),
		mcp.WithArray("mappings", mcp.Description("Mapping requests: {dashboard_parameter_name, card_id, card_parameter_name}"), mcp.Items(map[string]any{"type": "object"})),
	), t.handleUpdateDashboard)

	s.AddTool(mcp.NewTool("execute_query",
		mcp.WithDescription("Run a native SQL query against a database and return the rows."),
		mcp.WithNumber("database_id", mcp.Required(), mcp.Description("Database ID")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Native SQL")),
		mcp.WithArray("parameters", mcp.Description("Runtime parameter values for template tags"), mcp.Items(map[string]any{"type": "object"})),
	), t.handleExecuteQuery)

	s.AddTool(mcp.NewTool("validate_card_filters",
		mcp.WithDescription("Dry-run validation of card filter descriptors against a SQL query. Nothing is written to Metabase."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Native SQL the filters apply to")),
		mcp.WithArray("filters", mcp.Required(), mcp.Description("Simplified filter descriptors"), mcp.Items(map[string]any{"type": "object"})),
	), t.handleValidateCardFilters)

	s.AddTool(mcp.NewTool("validate_dashboard_filters",
		mcp.WithDescription("Dry-run validation of dashboard filter descriptors. Nothing is written to Metabase."),
		mcp.WithArray("filters", mcp.Required(), mcp.Description("Dashboard filter descriptors"), mcp.Items(map[string]any{"type": "object"})),
	), t.handleValidateDashboardFilters)

	s.AddTool(mcp.NewTool("get_filter_documentation",
		mcp.WithDescription("Reference documentation for the simplified filter descriptor format: types, widgets, value sources and common mistakes."),
	), t.handleGetFilterDocumentation)

	t.log.Info("registered 13 tools")
}
