package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/embeddings"
	"github.com/fyrsmithlabs/contextmem/internal/manager"
	"github.com/fyrsmithlabs/contextmem/internal/memory"
)

// handleStore stores a new context item.
func (s *Server) handleStore(c echo.Context) error {
	var req storeRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, memory.ErrValidation)
	}

	item, err := s.manager.Store(c.Request().Context(), manager.StoreRequest{
		Text:      req.Text,
		Level:     req.Level,
		Metadata:  req.Metadata,
		Priority:  req.Priority,
		SessionID: req.SessionID,
	})
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// handleSearch runs a budget-constrained similarity search.
func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, memory.ErrValidation)
	}

	resp, err := s.manager.Search(c.Request().Context(), manager.SearchRequest{
		Query:     req.Query,
		Level:     req.Level,
		SessionID: req.SessionID,
		Limit:     req.Limit,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	results := make([]searchResult, len(resp.Items))
	for i, scored := range resp.Items {
		results[i] = searchResult{Item: scored.Item, Score: scored.Score}
	}
	return c.JSON(http.StatusOK, searchResponse{
		Results:           results,
		TotalTokens:       resp.TotalTokens,
		LevelDistribution: resp.Levels,
		RetrievalTimeMs:   resp.Took.Milliseconds(),
	})
}

// handleGet returns one item by level and id.
func (s *Server) handleGet(c echo.Context) error {
	item, err := s.manager.Get(c.Request().Context(), c.Param("level"), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// handleDelete removes one item by level and id.
func (s *Server) handleDelete(c echo.Context) error {
	found, err := s.manager.Delete(c.Request().Context(), c.Param("level"), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	status := http.StatusOK
	if !found {
		status = http.StatusNotFound
	}
	return c.JSON(status, deleteResponse{Found: found})
}

// handleClear empties one level.
func (s *Server) handleClear(c echo.Context) error {
	removed, err := s.manager.Clear(c.Request().Context(), c.Param("level"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, clearResponse{Removed: removed})
}

// handleStats reports per-level counts.
func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, statsResponse{Levels: s.manager.Stats()})
}

// writeError maps taxonomy errors onto HTTP statuses with a uniform body.
func (s *Server) writeError(c echo.Context, err error) error {
	kind := "Internal"
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, memory.ErrValidation):
		kind, status = "ValidationError", http.StatusBadRequest
	case errors.Is(err, memory.ErrNotFound):
		kind, status = "NotFound", http.StatusNotFound
	case errors.Is(err, embeddings.ErrTimeout):
		kind, status = "EmbeddingTimeout", http.StatusGatewayTimeout
	case errors.Is(err, embeddings.ErrUnavailable):
		kind, status = "EmbeddingUnavailable", http.StatusServiceUnavailable
	case errors.Is(err, embeddings.ErrInvalidResponse):
		kind, status = "EmbeddingInvalidResponse", http.StatusBadGateway
	case errors.Is(err, memory.ErrDimensionMismatch):
		// Programmer-error class: logged loudly, never coerced.
		kind = "DimensionMismatch"
		s.logger.Error("embedding dimension mismatch", zap.Error(err))
	case errors.Is(err, memory.ErrCapacityExceeded):
		kind, status = "CapacityExceededTransient", http.StatusTooManyRequests
	default:
		s.logger.Error("internal error", zap.Error(err))
		// Internal details never leak to callers.
		return c.JSON(status, errorResponse{Error: errorDetail{Kind: kind, Message: "internal error"}})
	}

	return c.JSON(status, errorResponse{Error: errorDetail{Kind: kind, Message: err.Error()}})
}
