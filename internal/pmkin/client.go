package pmkin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jamesprial/pmkin-mcp/internal/config"
	"github.com/jamesprial/pmkin-mcp/internal/graphql"
)

// Client implements ContentService against a graphql.Client.
type Client struct {
	gql graphql.Client
}

// Compile-time check that Client implements ContentService.
var _ ContentService = (*Client)(nil)

// New wraps an existing GraphQL client.
func New(gql graphql.Client) *Client {
	return &Client{gql: gql}
}

// NewFromConfig builds the HTTP transport from cfg and wraps it. An empty
// cfg.URL selects config.DefaultGraphQLURL.
func NewFromConfig(cfg config.GraphQLConfig, opts ...graphql.Option) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = config.DefaultGraphQLURL
	}
	gql, err := graphql.NewHTTPClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return New(gql), nil
}

// ListOption adjusts the variables of a listing query.
type ListOption func(vars map[string]any)

// IncludeDrafts sets the includeDrafts variable. Without it the variable is
// not sent and the service applies its own default.
func IncludeDrafts(include bool) ListOption {
	return func(vars map[string]any) {
		vars["includeDrafts"] = include
	}
}

type findCategoryData struct {
	Category *Category `json:"category"`
}

type listCategoriesData struct {
	Categories *[]CategoryListing `json:"categories"`
}

type findDocumentData struct {
	Document *Document `json:"document"`
}

type findDocumentBySlugData struct {
	DocumentBySlug *Document `json:"documentBySlug"`
}

type listDocumentsData struct {
	Documents *[]DocumentListing `json:"documents"`
}

type listDocumentsInCategoryData struct {
	DocumentsInCategory *[]DocumentListing `json:"documentsInCategory"`
}

// FindCategory returns the category with the given ID, or nil when there is
// none.
func (c *Client) FindCategory(ctx context.Context, id string) (*Category, error) {
	data, err := graphql.Decode[findCategoryData](ctx, c.gql, opFindCategory.Query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return data.Category, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]CategoryListing, error) {
	var data listCategoriesData
	raw, err := c.execute(ctx, opListCategories, nil, &data)
	if err != nil {
		return nil, err
	}
	if data.Categories == nil {
		return nil, newInvalidResponseError(raw)
	}
	return *data.Categories, nil
}

// FindDocument returns the document with the given ID, or nil when there is
// none.
func (c *Client) FindDocument(ctx context.Context, id string) (*Document, error) {
	data, err := graphql.Decode[findDocumentData](ctx, c.gql, opFindDocument.Query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return data.Document, nil
}

// FindDocumentBySlug returns the document with the given slug, or nil when
// there is none.
func (c *Client) FindDocumentBySlug(ctx context.Context, slug string) (*Document, error) {
	data, err := graphql.Decode[findDocumentBySlugData](ctx, c.gql, opFindDocumentBySlug.Query, map[string]any{"slug": slug})
	if err != nil {
		return nil, err
	}
	return data.DocumentBySlug, nil
}

// ListDocuments returns every document.
func (c *Client) ListDocuments(ctx context.Context) ([]DocumentListing, error) {
	var data listDocumentsData
	raw, err := c.execute(ctx, opListDocuments, nil, &data)
	if err != nil {
		return nil, err
	}
	if data.Documents == nil {
		return nil, newInvalidResponseError(raw)
	}
	return *data.Documents, nil
}

// ListDocumentsInCategory returns the documents in the category with the
// given ID.
func (c *Client) ListDocumentsInCategory(ctx context.Context, categoryID string, opts ...ListOption) ([]DocumentListing, error) {
	vars := map[string]any{"categoryId": categoryID}
	for _, opt := range opts {
		opt(vars)
	}

	var data listDocumentsInCategoryData
	raw, err := c.execute(ctx, opListDocumentsInCategory, vars, &data)
	if err != nil {
		return nil, err
	}
	if data.DocumentsInCategory == nil {
		return nil, newInvalidResponseError(raw)
	}
	return *data.DocumentsInCategory, nil
}

// execute runs op and decodes its data into out. The raw data is returned
// alongside so callers can report it in an InvalidResponseError.
func (c *Client) execute(ctx context.Context, op operation, vars map[string]any, out any) ([]byte, error) {
	raw, err := c.gql.Execute(ctx, op.Query, vars)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return raw, fmt.Errorf("pmkin: %s: decode data: %w", op.Name, err)
	}
	return raw, nil
}
