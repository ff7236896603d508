package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/assistant"
	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/internal/planner"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a service error to an HTTP status and the message shown to
// the client.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrBlocked), errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case models.IsValidation(err),
		errors.Is(err, assistant.ErrEmptyMessage),
		errors.Is(err, planner.ErrEmptyPlan):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, llm.MessageRateLimited
	case errors.Is(err, llm.ErrPaymentRequired):
		return http.StatusPaymentRequired, llm.MessagePaymentRequired
	case errors.Is(err, llm.ErrBackend):
		return http.StatusBadGateway, llm.MessageGeneric
	case errors.Is(err, planner.ErrNoToolCall):
		return http.StatusBadGateway, "Invalid AI response format"
	}
	return http.StatusInternalServerError, "internal server error"
}

// handleError renders errors as {"error": "..."}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, ErrorResponse{Error: msg})
	}
	if werr != nil {
		s.logger.Warn("failed to write error response", zap.Error(werr))
	}
}
