package pmkin

import (
	"context"
	"time"

	"github.com/jamesprial/pmkin-mcp/internal/safety"
	"github.com/jamesprial/pmkin-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ContentTools returns the tool registrations for the content operations.
// Results are restricted to the categories filter allows; a nil filter
// allows everything and a nil audit logger disables auditing.
func ContentTools(svc ContentService, filter *safety.Filter, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolFindCategory(svc, filter, audit),
		toolListCategories(svc, filter, audit),
		toolFindDocument(svc, filter, audit),
		toolFindDocumentBySlug(svc, filter, audit),
		toolListDocuments(svc, filter, audit),
		toolListDocumentsInCategory(svc, filter, audit),
	}
}

func register(name string, tool mcp.Tool, handler server.ToolHandlerFunc) tools.Registration {
	return tools.Registration{Tool: tool, Handler: tools.Traced(name, handler)}
}

func filterDocuments(filter *safety.Filter, docs []DocumentListing) []DocumentListing {
	filtered := make([]DocumentListing, 0, len(docs))
	for _, d := range docs {
		if filter.IsAllowed(d.CategorySlug()) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func toolFindCategory(svc ContentService, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const name = "find_category"
	tool := mcp.NewTool(name,
		mcp.WithDescription("Find a content category by its ID."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Category ID"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		params := map[string]any{"id": id}

		category, err := svc.FindCategory(ctx, id)
		tools.LogAudit(audit, name, opFindCategory.Name, params, err, start)
		if err != nil {
			return tools.ErrorResult(err.Error()), nil
		}
		if category == nil || !filter.IsAllowed(category.Slug) {
			return tools.NotFoundResult("category", id), nil
		}
		return tools.JSONResult(category), nil
	}

	return register(name, tool, handler)
}

func toolListCategories(svc ContentService, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const name = "list_categories"
	tool := mcp.NewTool(name,
		mcp.WithDescription("List all content categories."),
	)

	handler := func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		categories, err := svc.ListCategories(ctx)
		tools.LogAudit(audit, name, opListCategories.Name, nil, err, start)
		if err != nil {
			return tools.ErrorResult(err.Error()), nil
		}

		filtered := make([]CategoryListing, 0, len(categories))
		for _, c := range categories {
			if filter.IsAllowed(c.Slug) {
				filtered = append(filtered, c)
			}
		}
		return tools.JSONResult(filtered), nil
	}

	return register(name, tool, handler)
}

func toolFindDocument(svc ContentService, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const name = "find_document"
	tool := mcp.NewTool(name,
		mcp.WithDescription("Find a document by its ID, including its HTML and Markdown body."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document ID"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		params := map[string]any{"id": id}

		doc, err := svc.FindDocument(ctx, id)
		tools.LogAudit(audit, name, opFindDocument.Name, params, err, start)
		if err != nil {
			return tools.ErrorResult(err.Error()), nil
		}
		if doc == nil || !filter.IsAllowed(doc.CategorySlug()) {
			return tools.NotFoundResult("document", id), nil
		}
		return tools.JSONResult(doc), nil
	}

	return register(name, tool, handler)
}

func toolFindDocumentBySlug(svc ContentService, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const name = "find_document_by_slug"
	tool := mcp.NewTool(name,
		mcp.WithDescription("Find a document by its slug, including its HTML and Markdown body."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Document slug"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		slug := req.GetString("slug", "")
		params := map[string]any{"slug": slug}

		doc, err := svc.FindDocumentBySlug(ctx, slug)
		tools.LogAudit(audit, name, opFindDocumentBySlug.Name, params, err, start)
		if err != nil {
			return tools.ErrorResult(err.Error()), nil
		}
		if doc == nil || !filter.IsAllowed(doc.CategorySlug()) {
			return tools.NotFoundResult("document", slug), nil
		}
		return tools.JSONResult(doc), nil
	}

	return register(name, tool, handler)
}

func toolListDocuments(svc ContentService, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const name = "list_documents"
	tool := mcp.NewTool(name,
		mcp.WithDescription("List all documents without their body."),
	)

	handler := func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		docs, err := svc.ListDocuments(ctx)
		tools.LogAudit(audit, name, opListDocuments.Name, nil, err, start)
		if err != nil {
			return tools.ErrorResult(err.Error()), nil
		}
		return tools.JSONResult(filterDocuments(filter, docs)), nil
	}

	return register(name, tool, handler)
}

func toolListDocumentsInCategory(svc ContentService, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const name = "list_documents_in_category"
	tool := mcp.NewTool(name,
		mcp.WithDescription("List the documents in a category without their body."),
		mcp.WithString("category_id",
			mcp.Required(),
			mcp.Description("Category ID"),
		),
		mcp.WithBoolean("include_drafts",
			mcp.Description("Include unpublished documents. Omit to use the service default."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		categoryID := req.GetString("category_id", "")
		params := map[string]any{"category_id": categoryID}

		var opts []ListOption
		if v, ok := req.GetArguments()["include_drafts"].(bool); ok {
			opts = append(opts, IncludeDrafts(v))
			params["include_drafts"] = v
		}

		docs, err := svc.ListDocumentsInCategory(ctx, categoryID, opts...)
		tools.LogAudit(audit, name, opListDocumentsInCategory.Name, params, err, start)
		if err != nil {
			return tools.ErrorResult(err.Error()), nil
		}
		return tools.JSONResult(filterDocuments(filter, docs)), nil
	}

	return register(name, tool, handler)
}
