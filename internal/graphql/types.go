// Package graphql provides the GraphQL HTTP transport used by every pmkin
// operation: it sends the request, classifies HTTP and GraphQL failures into
// typed errors and unwraps the response envelope.
package graphql

import (
	"context"
	"encoding/json"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Client defines the interface for executing GraphQL queries. Execute returns
// the raw JSON of the response "data" field.
type Client interface {
	Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlResponse is the loosely typed first stage of response decoding.
// Data stays raw until the envelope checks have passed.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors gqlerror.List   `json:"errors"`
}

// hasData reports whether the envelope carries a non-null data field.
func (r *graphqlResponse) hasData() bool {
	return len(r.Data) > 0 && string(r.Data) != "null"
}
