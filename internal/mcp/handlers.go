package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/EightFlix/Error/internal/config"
	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	catalog *ops.Catalog
	cfg     *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(catalog *ops.Catalog, cfg *config.Config) *Handlers {
	return &Handlers{catalog: catalog, cfg: cfg}
}

// Request types for each tool

// SearchRequest represents the arguments for file_search.
type SearchRequest struct {
	Query      string `json:"query"`
	Offset     int    `json:"offset,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	ChatID     int64  `json:"chat_id,omitempty"`
	OwnerID    int64  `json:"owner_id,omitempty"`
}

// PageRequest represents the arguments for file_page.
type PageRequest struct {
	Callback    string `json:"callback"`
	RequesterID int64  `json:"requester_id,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

// IDRequest represents the arguments for file_get.
type IDRequest struct {
	ID string `json:"id"`
}

// UpdateCaptionRequest represents the arguments for file_update_caption.
type UpdateCaptionRequest struct {
	ID      string `json:"id"`
	Caption string `json:"caption"`
}

// UpdateQualityRequest represents the arguments for file_update_quality.
type UpdateQualityRequest struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
}

// DeleteRequest represents the arguments for file_delete.
type DeleteRequest struct {
	Pattern string `json:"pattern"`
}

// HandleSearch handles the file_search tool.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(r.Query) == "" {
		return errorResult(errors.NewInvalidRequest("query is required")), nil
	}
	if r.Offset < 0 {
		return errorResult(errors.NewInvalidRequest("offset must not be negative")), nil
	}

	return successResult(h.catalog.Search(ctx, ops.SearchInput{
		Query:      r.Query,
		Offset:     r.Offset,
		MaxResults: r.MaxResults,
		ChatID:     r.ChatID,
		OwnerID:    r.OwnerID,
	}))
}

// HandlePage handles the file_page tool.
func (h *Handlers) HandlePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := decode[PageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := h.catalog.Page(ctx, ops.PageInput{
		Callback:    r.Callback,
		RequesterID: r.RequesterID,
		MaxResults:  r.MaxResults,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleGet handles the file_get tool.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	rec, err := h.catalog.GetByID(ctx, r.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(rec)
}

// HandleSave handles the file_save tool. Rejected records are reported with
// result "err" in a successful response, the same way the ingest path sees them.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := decode[ops.SaveInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(h.catalog.Save(ctx, r))
}

// HandleUpdateCaption handles the file_update_caption tool.
func (h *Handlers) HandleUpdateCaption(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := decode[UpdateCaptionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	ok, err := h.catalog.UpdateCaption(ctx, r.ID, r.Caption)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(ops.UpdateOutput{Updated: ok, ID: strings.TrimSpace(r.ID)})
}

// HandleUpdateQuality handles the file_update_quality tool.
func (h *Handlers) HandleUpdateQuality(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := decode[UpdateQualityRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	ok, err := h.catalog.UpdateQuality(ctx, r.ID, r.FileName)
	if err != nil {
		return errorResult(err), nil
	}

	out := ops.UpdateOutput{Updated: ok, ID: strings.TrimSpace(r.ID)}
	if ok {
		rec, err := h.catalog.GetByID(ctx, out.ID)
		if err != nil {
			return errorResult(err), nil
		}
		out.Quality = rec.Quality
	}
	return successResult(out)
}

// HandleDelete handles the file_delete tool.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := h.catalog.DeleteByPattern(ctx, r.Pattern)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleHealth handles the catalog_health tool.
func (h *Handlers) HandleHealth(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.catalog.Health(ctx))
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if fErr, ok := errors.As(err); ok {
		// Keep wrapper context such as "batch[2]: " in front of the message.
		message := fErr.Message
		if prefix, found := strings.CutSuffix(err.Error(), fErr.Error()); found && prefix != "" {
			message = prefix + message
		}

		errorObj := map[string]any{
			"code":    fErr.Code,
			"message": message,
			"status":  fErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if fErr.Code != errors.ErrInternal && fErr.Details != nil {
			errorObj["details"] = fErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
