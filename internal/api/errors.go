package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"printq/internal/logging"
	"printq/internal/queue"
)

// KindUnauthorized is reported when the bearer token is missing or wrong.
const KindUnauthorized = "unauthorized"

// StatusForKind maps a queue error kind onto an HTTP status code.
func StatusForKind(kind queue.Kind) int {
	switch kind {
	case queue.KindInvalidArgument, queue.KindInvalidInitialState:
		return http.StatusBadRequest
	case queue.KindNotFound:
		return http.StatusNotFound
	case queue.KindIllegalTransition:
		return http.StatusUnprocessableEntity
	case queue.KindDuplicateJob, queue.KindPositionConflict, queue.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind := queue.KindOf(err)
	status := StatusForKind(kind)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		status = 499
	}
	if status >= http.StatusInternalServerError {
		logging.WithContext(c.Request.Context(), s.logger).Error("request failed",
			logging.String("path", c.FullPath()),
			logging.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Kind: string(kind)})
}
