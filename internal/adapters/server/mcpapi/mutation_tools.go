package mcpapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/hylla/tavla/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// priorityValues lists the accepted card priorities.
var priorityValues = []string{"low", "medium", "high", "urgent"}

// registerMutationTools registers the card and column mutation tools.
func registerMutationTools(srv *mcpserver.MCPServer, boards common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavla.create_card",
			mcp.WithDescription("Create one card at the bottom of a column."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Destination column identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Card title")),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("priority", mcp.Description("Card priority"), mcp.Enum(priorityValues...)),
			mcp.WithString("assignee", mcp.Description("Assignee name")),
			mcp.WithArray("tags", mcp.Description("Optional tags"), mcp.WithStringItems()),
			mcp.WithString("due_date", mcp.Description("Optional YYYY-MM-DD due date")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			card, err := boards.CreateCard(ctx, common.CreateCardRequest{
				ColumnID:    columnID,
				Title:       title,
				Description: req.GetString("description", ""),
				Priority:    req.GetString("priority", ""),
				Assignee:    req.GetString("assignee", ""),
				Tags:        append([]string(nil), req.GetStringSlice("tags", nil)...),
				DueDate:     req.GetString("due_date", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode create_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.update_card",
			mcp.WithDescription("Update one card's fields. Omitted fields are untouched; an empty due_date clears it."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("title", mcp.Description("Card title")),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("priority", mcp.Description("Card priority"), mcp.Enum(priorityValues...)),
			mcp.WithString("assignee", mcp.Description("Assignee name")),
			mcp.WithArray("tags", mcp.Description("Replacement tags"), mcp.WithStringItems()),
			mcp.WithString("due_date", mcp.Description("YYYY-MM-DD due date, or empty to clear")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				CardID      string    `json:"card_id"`
				Title       *string   `json:"title"`
				Description *string   `json:"description"`
				Priority    *string   `json:"priority"`
				Assignee    *string   `json:"assignee"`
				Tags        *[]string `json:"tags"`
				DueDate     *string   `json:"due_date"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.CardID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "card_id" not found`), nil
			}
			card, err := boards.UpdateCard(ctx, common.UpdateCardRequest{
				CardID:      args.CardID,
				Title:       args.Title,
				Description: args.Description,
				Priority:    args.Priority,
				Assignee:    args.Assignee,
				Tags:        args.Tags,
				DueDate:     args.DueDate,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode update_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.move_card",
			mcp.WithDescription("Move one card to a column at a zero-based position."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Destination column identifier")),
			mcp.WithNumber("position", mcp.Required(), mcp.Description("Destination position")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			position, err := req.RequireInt("position")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			card, err := boards.MoveCard(ctx, common.MoveCardRequest{
				CardID:   cardID,
				ColumnID: columnID,
				Position: position,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode move_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.delete_card",
			mcp.WithDescription("Delete one card."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			if err := boards.DeleteCard(ctx, cardID); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"deleted": cardID})
			if err != nil {
				return nil, fmt.Errorf("encode delete_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.reorder_column",
			mcp.WithDescription("Move one column to a zero-based index on its board."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithNumber("order", mcp.Required(), mcp.Description("Destination index")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			order, err := req.RequireInt("order")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			if err := boards.ReorderColumn(ctx, common.ReorderColumnRequest{ColumnID: columnID, Order: order}); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"column_id": columnID,
				"order":     order,
			})
			if err != nil {
				return nil, fmt.Errorf("encode reorder_column result: %w", err)
			}
			return result, nil
		},
	)
}
