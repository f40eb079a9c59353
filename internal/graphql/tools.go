package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/pmkin-mcp/internal/safety"
	"github.com/jamesprial/pmkin-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const toolNameGraphQLQuery = "graphql_query"

// GraphQLTools returns the tool registrations for the raw GraphQL escape
// hatch: a single "graphql_query" tool.
func GraphQLTools(client Client, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolGraphQLQuery(client, audit),
	}
}

// operationName parses query and returns the name of its first operation.
// Anonymous operations yield "".
func operationName(query string) (string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return "", err
	}
	if len(doc.Operations) == 0 {
		return "", fmt.Errorf("document contains no operation")
	}
	return doc.Operations[0].Name, nil
}

func toolGraphQLQuery(client Client, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameGraphQLQuery,
		mcp.WithDescription("Execute an arbitrary GraphQL query against the pmkin content API. Use when the content tools do not cover the fields you need."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL query document to execute."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object string of variables to pass with the query."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		query := req.GetString("query", "")
		variablesStr := req.GetString("variables", "")

		params := map[string]any{
			"query":     query,
			"variables": variablesStr,
		}

		// Syntax errors are reported without a round trip.
		opName, err := operationName(query)
		if err != nil {
			err = fmt.Errorf("parse query: %w", err)
			tools.LogAudit(audit, toolNameGraphQLQuery, "", params, err, start)
			return tools.ErrorResult(err.Error()), nil
		}

		var parsedVars map[string]any
		if variablesStr != "" {
			if err := json.Unmarshal([]byte(variablesStr), &parsedVars); err != nil {
				err = fmt.Errorf("parse variables JSON: %w", err)
				tools.LogAudit(audit, toolNameGraphQLQuery, opName, params, err, start)
				return tools.ErrorResult(err.Error()), nil
			}
		}

		data, err := client.Execute(ctx, query, parsedVars)
		if err != nil {
			tools.LogAudit(audit, toolNameGraphQLQuery, opName, params, err, start)
			return tools.ErrorResult(err.Error()), nil
		}

		// Round-trip through any so JSONResult applies consistent indentation.
		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			tools.LogAudit(audit, toolNameGraphQLQuery, opName, params, err, start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameGraphQLQuery, opName, params, nil, start)
		return tools.JSONResult(parsed), nil
	}

	return tools.Registration{Tool: tool, Handler: tools.Traced(toolNameGraphQLQuery, server.ToolHandlerFunc(handler))}
}
