package pmkin

import (
	_ "embed"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

var (
	//go:embed queries/find_category.graphql
	findCategoryQuery string
	//go:embed queries/list_categories.graphql
	listCategoriesQuery string
	//go:embed queries/find_document.graphql
	findDocumentQuery string
	//go:embed queries/find_document_by_slug.graphql
	findDocumentBySlugQuery string
	//go:embed queries/list_documents.graphql
	listDocumentsQuery string
	//go:embed queries/list_documents_in_category.graphql
	listDocumentsInCategoryQuery string
)

// operation is a parsed, named GraphQL document.
type operation struct {
	Name  string
	Query string
}

var (
	opFindCategory            = mustOperation("find_category.graphql", findCategoryQuery)
	opListCategories          = mustOperation("list_categories.graphql", listCategoriesQuery)
	opFindDocument            = mustOperation("find_document.graphql", findDocumentQuery)
	opFindDocumentBySlug      = mustOperation("find_document_by_slug.graphql", findDocumentBySlugQuery)
	opListDocuments           = mustOperation("list_documents.graphql", listDocumentsQuery)
	opListDocumentsInCategory = mustOperation("list_documents_in_category.graphql", listDocumentsInCategoryQuery)
)

// parseOperation checks that src is a document with exactly one named
// query operation.
func parseOperation(name, src string) (operation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: src})
	if err != nil {
		return operation{}, err
	}
	if len(doc.Operations) != 1 {
		return operation{}, fmt.Errorf("%s: want exactly one operation, got %d", name, len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Operation != ast.Query {
		return operation{}, fmt.Errorf("%s: %s is a %s, want a query", name, op.Name, op.Operation)
	}
	if op.Name == "" {
		return operation{}, fmt.Errorf("%s: operation must be named", name)
	}
	return operation{Name: op.Name, Query: src}, nil
}

func mustOperation(name, src string) operation {
	op, err := parseOperation(name, src)
	if err != nil {
		panic(fmt.Sprintf("pmkin: invalid embedded query: %v", err))
	}
	return op
}
