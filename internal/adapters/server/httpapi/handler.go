// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/tavla/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	boards common.BoardService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over a board service.
func NewHandler(boards common.BoardService) *Handler {
	return &Handler{boards: boards}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.boards == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "board service is not configured",
		})
		return
	}

	parts := strings.Split(normalizePath(r.URL.Path), "/")
	switch {
	case len(parts) == 1 && parts[0] == "boards":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListBoards(w, r)
	case len(parts) == 3 && parts[0] == "boards" && parts[1] != "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		switch parts[2] {
		case "columns":
			h.handleListColumns(w, r, parts[1])
		case "cards":
			h.handleListCards(w, r, parts[1])
		case "search":
			h.handleSearchCards(w, r, parts[1])
		default:
			writeNotFound(w)
		}
	case len(parts) == 3 && parts[0] == "columns" && parts[1] != "":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		switch parts[2] {
		case "cards":
			h.handleCreateCard(w, r, parts[1])
		case "reorder":
			h.handleReorderColumn(w, r, parts[1])
		default:
			writeNotFound(w)
		}
	case len(parts) == 2 && parts[0] == "cards" && parts[1] != "":
		switch r.Method {
		case http.MethodPatch:
			h.handleUpdateCard(w, r, parts[1])
		case http.MethodDelete:
			h.handleDeleteCard(w, r, parts[1])
		default:
			writeMethodNotAllowed(w, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 3 && parts[0] == "cards" && parts[1] != "" && parts[2] == "move":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleMoveCard(w, r, parts[1])
	default:
		writeNotFound(w)
	}
}

// handleListBoards serves GET `/boards`.
func (h *Handler) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.boards.ListBoards(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"boards": boards})
}

// handleListColumns serves GET `/boards/{id}/columns`.
func (h *Handler) handleListColumns(w http.ResponseWriter, r *http.Request, boardID string) {
	columns, err := h.boards.ListColumns(r.Context(), boardID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": columns})
}

// handleListCards serves GET `/boards/{id}/cards`.
func (h *Handler) handleListCards(w http.ResponseWriter, r *http.Request, boardID string) {
	cards, err := h.boards.ListCards(r.Context(), boardID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

// handleSearchCards serves GET `/boards/{id}/search?q=&limit=`.
func (h *Handler) handleSearchCards(w http.ResponseWriter, r *http.Request, boardID string) {
	req := common.SearchCardsRequest{
		BoardID: boardID,
		Query:   r.URL.Query().Get("q"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: "limit must be a non-negative integer",
				Context: map[string]any{"limit": raw},
			})
			return
		}
		req.Limit = limit
	}
	hits, err := h.boards.SearchCards(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": hits,
	})
}

// handleCreateCard serves POST `/columns/{id}/cards`.
func (h *Handler) handleCreateCard(w http.ResponseWriter, r *http.Request, columnID string) {
	var req common.CreateCardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if body := strings.TrimSpace(req.ColumnID); body != "" && body != columnID {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "column_id in body does not match path",
			Context: map[string]any{"column_id": body},
		})
		return
	}
	req.ColumnID = columnID
	card, err := h.boards.CreateCard(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// handleReorderColumn serves POST `/columns/{id}/reorder`.
func (h *Handler) handleReorderColumn(w http.ResponseWriter, r *http.Request, columnID string) {
	var req common.ReorderColumnRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.ColumnID = columnID
	if err := h.boards.ReorderColumn(r.Context(), req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateCard serves PATCH `/cards/{id}`.
func (h *Handler) handleUpdateCard(w http.ResponseWriter, r *http.Request, cardID string) {
	var req common.UpdateCardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.CardID = cardID
	card, err := h.boards.UpdateCard(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleMoveCard serves POST `/cards/{id}/move`.
func (h *Handler) handleMoveCard(w http.ResponseWriter, r *http.Request, cardID string) {
	var req common.MoveCardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.CardID = cardID
	card, err := h.boards.MoveCard(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleDeleteCard serves DELETE `/cards/{id}`.
func (h *Handler) handleDeleteCard(w http.ResponseWriter, r *http.Request, cardID string) {
	if err := h.boards.DeleteCard(r.Context(), cardID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "request_canceled",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeNotFound writes the structured unknown-route response.
func writeNotFound(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotFound, APIError{
		Code:    "not_found",
		Message: "endpoint not found",
	})
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
