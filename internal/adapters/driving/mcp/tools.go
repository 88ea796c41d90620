package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	TenantID    string `json:"tenant_id" jsonschema:"the tenant that owns the document"`
	Title       string `json:"title" jsonschema:"document title"`
	Category    string `json:"category,omitempty" jsonschema:"optional grouping such as hr or it"`
	Version     string `json:"version,omitempty" jsonschema:"version tag, v1 when omitted"`
	Content     string `json:"content" jsonschema:"the document text"`
	ContentType string `json:"content_type,omitempty" jsonschema:"MIME type of content, text/plain when omitted"`
}

// QueryInput is the input schema for the query_corpus tool.
type QueryInput struct {
	TenantID string `json:"tenant_id" jsonschema:"the tenant whose corpus is searched"`
	Query    string `json:"query" jsonschema:"the question or text to match"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to return, 5 by default and at most 10"`
}

// CreateTenantInput is the input schema for the create_tenant tool.
type CreateTenantInput struct {
	Name string `json:"name" jsonschema:"display name of the tenant"`
}

// ListTenantsInput is the empty input of the list_tenants tool.
type ListTenantsInput struct{}

// TenantOutput is a tenant as returned by the tenant tools.
type TenantOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListTenantsOutput is the output schema for the list_tenants tool.
type ListTenantsOutput struct {
	Tenants []TenantOutput `json:"tenants"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Chunk, embed and store a document in a tenant's corpus",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_corpus",
		Description: "Return the chunks of a tenant's corpus most similar to a query, best first",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_tenant",
		Description: "Create a tenant and return its id",
	}, s.handleCreateTenant)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tenants",
		Description: "List all tenants",
	}, s.handleListTenants)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, domain.IngestResult, error) {
	res, err := s.ports.Retrieval.Ingest(ctx, domain.IngestRequest{
		TenantID:    input.TenantID,
		Title:       input.Title,
		Category:    input.Category,
		Version:     input.Version,
		Content:     []byte(input.Content),
		ContentType: input.ContentType,
	})
	if err != nil {
		return nil, domain.IngestResult{}, err
	}
	return nil, *res, nil
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, domain.QueryResult, error) {
	res, err := s.ports.Retrieval.Query(ctx, domain.QueryRequest{
		TenantID: input.TenantID,
		Query:    input.Query,
		TopK:     input.TopK,
	})
	if err != nil {
		return nil, domain.QueryResult{}, err
	}
	return nil, *res, nil
}

func (s *Server) handleCreateTenant(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateTenantInput,
) (*mcp.CallToolResult, TenantOutput, error) {
	tenant, err := s.ports.Tenant.Create(ctx, input.Name)
	if err != nil {
		return nil, TenantOutput{}, err
	}
	return nil, TenantOutput{ID: tenant.ID, Name: tenant.Name}, nil
}

func (s *Server) handleListTenants(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListTenantsInput,
) (*mcp.CallToolResult, ListTenantsOutput, error) {
	tenants, err := s.ports.Tenant.List(ctx)
	if err != nil {
		return nil, ListTenantsOutput{}, err
	}

	out := ListTenantsOutput{Tenants: make([]TenantOutput, len(tenants))}
	for i, t := range tenants {
		out.Tenants[i] = TenantOutput{ID: t.ID, Name: t.Name}
	}
	return nil, out, nil
}
