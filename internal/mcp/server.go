package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"rentalbot/internal/catalog"
	"rentalbot/internal/model"
	"rentalbot/internal/retrieval"
	"rentalbot/internal/service"
)

const defaultTopK = 4

// SessionProvider resolves a session id to its chatbot
type SessionProvider interface {
	Get(ctx context.Context, sessionID string) (*service.Chatbot, string, error)
}

// Server exposes the rental assistant as MCP tools
type Server struct {
	sessions  SessionProvider
	index     retrieval.Index
	catalog   *catalog.Catalog
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server
func NewServer(sessions SessionProvider, index retrieval.Index, cat *catalog.Catalog, version string) *Server {
	s := &Server{
		sessions: sessions,
		index:    index,
		catalog:  cat,
	}

	s.mcpServer = server.NewMCPServer(
		"Property Rental Assistant",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "ask_rental_assistant",
		Description: "Ask the property rental assistant a question. Answers use the property catalog and the conversation so far.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "The guest's question",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation id returned by a previous call. Omit to start a new conversation.",
				},
			},
			Required: []string{"message"},
		},
	}, s.handleAsk)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "search_properties",
		Description: "Find rental properties. With a query, results are ranked by similarity; filters narrow the results.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language description of the wanted property. Optional.",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of similarity results (default: 4)",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "available or unavailable. Optional.",
				},
				"location": map[string]interface{}{
					"type":        "string",
					"description": "Exact location name. Optional.",
				},
				"price_min": map[string]interface{}{
					"type":        "number",
					"description": "Minimum nightly price. Optional.",
				},
				"price_max": map[string]interface{}{
					"type":        "number",
					"description": "Maximum nightly price. Optional.",
				},
				"amenity": map[string]interface{}{
					"type":        "string",
					"description": "Required amenity. Optional.",
				},
			},
			Required: []string{},
		},
	}, s.handleSearch)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_property",
		Description: "Get one property by its id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"property_id": map[string]interface{}{
					"type":        "integer",
					"description": "The property id",
				},
			},
			Required: []string{"property_id"},
		},
	}, s.handleGetProperty)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_conversation",
		Description: "Forget the messages and summary of a conversation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation id to clear",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleClear)
}

// parseParams converts MCP request arguments to a struct
func parseParams(args interface{}, target interface{}) error {
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if params.Message == "" {
		return mcp.NewToolResultError("message is required"), nil
	}

	bot, sessionID, err := s.sessions.Get(ctx, params.SessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"answer":     bot.GetResponse(ctx, params.Message),
		"session_id": sessionID,
	})
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Query    string   `json:"query"`
		TopK     int      `json:"top_k"`
		Status   string   `json:"status"`
		Location *string  `json:"location"`
		PriceMin *float64 `json:"price_min"`
		PriceMax *float64 `json:"price_max"`
		Amenity  *string  `json:"amenity"`
	}
	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	filters := model.PropertyFilters{
		Location: params.Location,
		PriceMin: params.PriceMin,
		PriceMax: params.PriceMax,
		Amenity:  params.Amenity,
	}
	if params.Status != "" {
		status, err := model.ParsePropertyStatus(params.Status)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filters.Status = &status
	}

	if params.Query == "" {
		results := s.catalog.Filter(filters)
		return jsonResult(model.PropertyListResponse{Results: results, Total: len(results)})
	}

	if params.TopK <= 0 {
		params.TopK = defaultTopK
	}
	hits, err := s.index.Query(ctx, params.Query, params.TopK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	// Similarity order is kept; filters only drop hits.
	allowed := make(map[int64]bool)
	for _, p := range s.catalog.Filter(filters) {
		allowed[p.ID] = true
	}
	results := []model.SearchResult{}
	for _, h := range hits {
		if allowed[h.Property.ID] {
			results = append(results, h)
		}
	}

	return jsonResult(map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

func (s *Server) handleGetProperty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		PropertyID int64 `json:"property_id"`
	}
	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	p, err := s.catalog.ByID(params.PropertyID)
	if err != nil {
		if errors.Is(err, catalog.ErrPropertyNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("property %d not found", params.PropertyID)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		SessionID string `json:"session_id"`
	}
	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if params.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	bot, sessionID, err := s.sessions.Get(ctx, params.SessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bot.Clear(ctx)

	return jsonResult(map[string]interface{}{
		"success":    true,
		"session_id": sessionID,
		"message":    "Conversation cleared",
	})
}

// Serve starts the MCP server with stdio transport
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}
